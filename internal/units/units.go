// Package units provides shared constants and validation for acceleration units
package units

// Unit constants
const (
	MPS2 = "mps2" // metres per second squared
	G    = "g"    // standard gravity
	KPHS = "kphs" // kilometres per hour, per second
)

// StandardGravity is the conventional value of g in m/s².
const StandardGravity = 9.80665

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS2, G, KPHS}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps2, g, kphs"
}

// ConvertAcceleration converts an acceleration from m/s² to the target units.
// The pipeline computes and stores accelerations in m/s².
func ConvertAcceleration(accelMPS2 float64, targetUnits string) float64 {
	switch targetUnits {
	case G:
		return accelMPS2 / StandardGravity
	case KPHS:
		return accelMPS2 * 3.6 // m/s² to (km/h)/s
	case MPS2:
		return accelMPS2 // no conversion needed
	default:
		return accelMPS2 // default to m/s² if unknown unit
	}
}
