package bench

import (
	"math/rand"
	"path/filepath"
	"strconv"
)

// seededRNG builds the deterministic source a Case uses to materialize
// its instance.Random instance, keyed on the Case's own InstanceSeed
// rather than a run seed.
func seededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// outputDir returns the directory component of a CSV destination path,
// or "" when the path has none (WriteCSV then skips MkdirAll).
func outputDir(path string) string {
	d := filepath.Dir(path)
	if d == "." {
		return ""
	}
	return d
}

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
