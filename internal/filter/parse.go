package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidSize is returned by ParseSize for malformed input.
	ErrInvalidSize = errors.New("invalid size")
	// ErrInvalidDuration is returned by ParseAge for malformed input.
	ErrInvalidDuration = errors.New("invalid duration")
)

var sizeUnits = map[string]float64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
	"T":  1 << 40,
	"TB": 1 << 40,
}

var ageUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// splitUnit separates the numeric prefix from the alphabetic unit suffix.
func splitUnit(s string) (string, string) {
	idx := strings.IndexFunc(s, unicode.IsLetter)
	if idx < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx:])
}

// ParseSize converts strings such as "500", "1KB" or "1.5GB" into bytes using
// binary multiples.
func ParseSize(s string) (int64, error) {
	num, unit := splitUnit(strings.ToUpper(strings.TrimSpace(s)))
	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: bad number %q", ErrInvalidSize, num)
	}
	bytes := value * multiplier
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidSize, s)
	}
	return int64(bytes), nil
}

// ParseAge converts strings such as "30s", "5m", "2h", "1d" or "1w" into a
// duration. A unit is required.
func ParseAge(s string) (time.Duration, error) {
	num, unit := splitUnit(strings.ToLower(strings.TrimSpace(s)))
	if unit == "" {
		return 0, fmt.Errorf("%w: no time unit in %q", ErrInvalidDuration, s)
	}
	step, ok := ageUnits[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, unit)
	}
	value, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrInvalidDuration, num)
	}
	if value > uint64(math.MaxInt64/step) {
		return 0, fmt.Errorf("%w: %q is too long", ErrInvalidDuration, s)
	}
	return time.Duration(value) * step, nil
}
