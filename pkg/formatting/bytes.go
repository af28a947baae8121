// Package formatting converts values to and from the human-readable forms
// used in configuration files, logs, and download names.
package formatting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// units are base-1024 and stop at EB, the largest that fits an int64.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest unit that keeps the value at or above 1.
// Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for ; i < len(units)-1 && (size >= 1024 || size <= -1024); i++ {
		size /= 1024
	}

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes reads sizes such as "50MB", "1.5 GiB", or "4096".
// Units are case-insensitive and base-1024; "KiB" style suffixes are accepted
// as aliases. A bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if len(unit) == 3 && unit[1] == 'I' {
		unit = unit[:1] + unit[2:]
	}
	if unit == "" {
		unit = "B"
	}

	for i, u := range units {
		if u != unit {
			continue
		}
		for range i {
			value *= 1024
		}
		return int64(value), nil
	}

	return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
}
