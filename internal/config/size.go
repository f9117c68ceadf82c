package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Size multipliers. SI and IEC suffixes are both accepted.
const (
	kilobyte = 1000
	megabyte = 1000 * kilobyte
	gigabyte = 1000 * megabyte

	kibibyte = 1024
	mebibyte = 1024 * kibibyte
	gibibyte = 1024 * mebibyte
)

// sizeSuffixes is ordered so that longer suffixes match first.
var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"GIB", gibibyte},
	{"MIB", mebibyte},
	{"KIB", kibibyte},
	{"GB", gigabyte},
	{"MB", megabyte},
	{"KB", kilobyte},
	{"B", 1},
}

// parseSize converts a human-readable size such as "50MB" or "10MiB" to
// bytes. Empty string and "0" return 0. A bare number is raw bytes.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	numStr, multiplier := s, int64(1)

	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(upper, sf.suffix) {
			numStr = strings.TrimSpace(s[:len(s)-len(sf.suffix)])
			multiplier = sf.multiplier

			break
		}
	}

	n, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must be non-negative", s)
	}

	return int64(n * float64(multiplier)), nil
}
