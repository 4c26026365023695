// Package compact converts between exact counters and the abbreviated
// display strings used across the storefront ("1.2M", "850k").
package compact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse reads a compact count such as "1.2M", "850k" or "1,234".
// Suffixes are case-insensitive; an empty string is zero.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1e3
	case 'm', 'M':
		multiplier = 1e6
	case 'b', 'B':
		multiplier = 1e9
	}
	if multiplier != 1 {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid compact count %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid compact count %q: not finite", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid compact count %q: negative", s)
	}
	v := math.Round(f * multiplier)
	if v >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid compact count %q: out of range", s)
	}
	return int64(v), nil
}

// Format renders n with one decimal and an M or k suffix, or as a plain
// integer below one thousand. The result is lossy: Parse(Format(1234567))
// yields 1200000. The suffix is picked after rounding, so 999950 is "1.0M".
func Format(n int64) string {
	if n < 1_000 {
		return strconv.FormatInt(n, 10)
	}
	if k := math.Round(float64(n)/100) / 10; k < 1_000 {
		return strconv.FormatFloat(k, 'f', 1, 64) + "k"
	}
	return strconv.FormatFloat(math.Round(float64(n)/1e5)/10, 'f', 1, 64) + "M"
}

// Count is an exact non-negative counter. It marshals as a JSON number and
// unmarshals from either a number or a legacy compact string.
type Count int64

func (c Count) String() string {
	return Format(int64(c))
}

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := Parse(s)
		if err != nil {
			return err
		}
		*c = Count(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid count %s: %w", data, err)
	}
	if f < 0 {
		return fmt.Errorf("invalid count %s: negative", data)
	}
	if math.Round(f) >= math.MaxInt64 {
		return fmt.Errorf("invalid count %s: out of range", data)
	}
	*c = Count(math.Round(f))
	return nil
}
