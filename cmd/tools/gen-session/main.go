// Command gen-session generates synthetic labeled session recordings
// for validation fixtures and benchmarks.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/behavior.report/internal/motion/replay"
	"github.com/banshee-data/behavior.report/internal/security"
)

func main() {
	output := flag.String("o", "sessions", "output directory")
	count := flag.Int("n", 4, "sessions to generate per label")
	seed := flag.Int64("seed", 1, "base RNG seed")
	durationMs := flag.Int64("duration", 120_000, "session duration (ms)")
	samplingMs := flag.Int("sampling", 100, "sampling period (ms)")
	amplitude := flag.Float64("amplitude", 12.0, "peak maneuver acceleration for risky sessions (m/s²)")
	tilt := flag.Float64("tilt", 0, "mounting tilt about the device Y axis (degrees)")
	dropout := flag.Float64("dropout", 0, "per-sample probability of a corrupt reading")
	flag.Parse()

	if err := os.MkdirAll(*output, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	written := 0
	for _, label := range []string{replay.SessionSafe, replay.SessionRisky} {
		for i := 0; i < *count; i++ {
			cfg := replay.DefaultGeneratorConfig()
			cfg.Seed = *seed + int64(written)
			cfg.DurationMs = *durationMs
			cfg.SamplingRateMs = *samplingMs
			cfg.SpikeAmplitude = *amplitude
			cfg.SpikeDurationMs = 1000
			cfg.TiltDegrees = *tilt
			cfg.DropoutProbability = *dropout

			name := security.SanitizeFilename(fmt.Sprintf("%s-%02d", label, i+1))
			session, err := replay.GenerateSession(name, label, cfg)
			if err != nil {
				log.Fatalf("failed to generate %s: %v", name, err)
			}

			path := filepath.Join(*output, name+".json")
			if err := replay.SaveSession(session, path); err != nil {
				log.Fatalf("failed to write %s: %v", path, err)
			}
			written++
		}
	}
	log.Printf("✓ Created %d sessions in %s", written, *output)
}
