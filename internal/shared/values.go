package shared

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for case-insensitive matching.
// A Caser is stateful, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Text renders an attribute value as display text. Nil renders as "".
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return Text(*val)
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}
		return val.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// Instant reports whether v is a point in time and returns it.
func Instant(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	}
	return time.Time{}, false
}

// Truth reports whether v is a boolean and returns it.
func Truth(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case *bool:
		if val == nil {
			return false, false
		}
		return *val, true
	}
	return false, false
}

// Number reports whether v is numeric and returns it as a decimal. Strings are
// never treated as numbers.
func Number(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float32:
		return decimal.NewFromFloat32(val), true
	case float64:
		return decimal.NewFromFloat(val), true
	case int, int8, int16, int32, int64:
		return decimal.NewFromInt(cast.ToInt64(val)), true
	case uint, uint8, uint16, uint32:
		return decimal.NewFromInt(cast.ToInt64(val)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0), true
	}
	return decimal.Zero, false
}

// IsNil reports whether v carries no value, including typed nil pointers the
// record types use for optional attributes.
func IsNil(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case *time.Time:
		return val == nil
	case *bool:
		return val == nil
	case *decimal.Decimal:
		return val == nil
	case *string:
		return val == nil
	}
	return false
}

// IntParam parses an optional base-10 integer query parameter, falling back
// to def. Leading zeros do not switch the base.
func IntParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuery, raw)
	}
	return n, nil
}

// DateParam parses an optional date (YYYY-MM-DD or RFC3339) query parameter.
func DateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidQuery, raw)
	}
	return &t, nil
}
