package config

// Preset names, in the order GetPresetNames returns them.
const (
	PresetSensitive   = "sensitive"
	PresetNormal      = "normal"
	PresetRelaxed     = "relaxed"
	PresetPerformance = "performance"
)

// GetPresets returns the named parameter bundles. Each preset is a partial
// config meant to be merged over the defaults; unset fields keep their
// default values. Callers receive fresh copies and may mutate them freely.
func GetPresets() map[string]*DetectionConfig {
	return map[string]*DetectionConfig{
		// Catches more events at the cost of false positives.
		PresetSensitive: {
			AccelerationThreshold: ptrFloat64(4.5),
			BrakingThreshold:      ptrFloat64(-5.0),
			AlertCooldownMs:       ptrInt(3000),
			CutoffFrequency:       ptrFloat64(3.0),
			MovingAverageWindow:   ptrInt(3),
		},
		// The shipped defaults, restated so the preset list is complete.
		PresetNormal: {
			AccelerationThreshold: ptrFloat64(6.5),
			BrakingThreshold:      ptrFloat64(-7.0),
			AlertCooldownMs:       ptrInt(5000),
		},
		// Flags only pronounced events; suited to rough roads.
		PresetRelaxed: {
			AccelerationThreshold: ptrFloat64(9.0),
			BrakingThreshold:      ptrFloat64(-9.5),
			AlertCooldownMs:       ptrInt(8000),
			MovingAverageWindow:   ptrInt(8),
		},
		// Lower sample rate and lighter filtering for constrained devices.
		PresetPerformance: {
			SamplingRateMs:            ptrInt(200),
			EnableMultistageFiltering: ptrBool(false),
			MovingAverageWindow:       ptrInt(3),
			CutoffFrequency:           ptrFloat64(2.0),
		},
	}
}

// GetPresetNames returns the preset names in display order.
func GetPresetNames() []string {
	return []string{PresetSensitive, PresetNormal, PresetRelaxed, PresetPerformance}
}
