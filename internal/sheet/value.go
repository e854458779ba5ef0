package sheet

// value.go provides best-effort typing of cell values for comparisons.
//
// Cells are stored as raw text. Filters and sorts coerce both sides with
// Coerce so that "10" (text) and 10 (number) compare the same way. Coerced
// values are always one of: nil, bool, int64, float64, string.

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw cell or argument value into its best-guess scalar.
//
//   - nil stays nil
//   - bool, integers and floats are kept (widened to int64 / float64)
//   - anything else is taken as text, trimmed, and tried as
//     "true"/"false" (any case), then a base-10 integer, then a float
//
// Text that matches none of these is returned trimmed. Coerce never fails.
func Coerce(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return widenUnsigned(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return widenUnsigned(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case string:
		return coerceText(x)
	case json.Number:
		return coerceText(string(x))
	case fmt.Stringer:
		return coerceText(x.String())
	default:
		return coerceText(fmt.Sprint(x))
	}
}

func widenUnsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func coerceText(s string) any {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, ok := parseFloat(s); ok {
		return f
	}
	return s
}

// parseFloat accepts decimal and exponent forms plus inf/nan. Hex floats are
// rejected. Out-of-range values saturate to ±Inf.
func parseFloat(s string) (float64, bool) {
	unsigned := strings.TrimLeft(s, "+-")
	if len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, false
	}
	if strings.ContainsRune(s, '_') {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, true
	}
	if errors.Is(err, strconv.ErrRange) {
		return f, true
	}
	return 0, false
}

// number reports v as a numeric value. Bools count as 0 and 1.
func number(v any) (i int64, f float64, isInt, ok bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, 1, true, true
		}
		return 0, 0, true, true
	case int64:
		return x, float64(x), true, true
	case float64:
		return 0, x, false, true
	}
	return 0, 0, false, false
}

// Equal reports whether two coerced values are equal. nil only equals nil,
// numbers compare by value across int and float, strings compare exactly,
// and values of different kinds are never equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ai, af, aInt, aNum := number(a)
	bi, bf, bInt, bNum := number(b)
	if aNum && bNum {
		if aInt && bInt {
			return ai == bi
		}
		return af == bf
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	return aStr && bStr && as == bs
}

// compareOrdered orders two coerced values. ok is false when the pair has no
// defined order: a nil side, a NaN, or a number against a string.
func compareOrdered(a, b any) (c int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}

	ai, af, aInt, aNum := number(a)
	bi, bf, bInt, bNum := number(b)
	if aNum && bNum {
		if aInt && bInt {
			return cmp.Compare(ai, bi), true
		}
		if math.IsNaN(af) || math.IsNaN(bf) {
			return 0, false
		}
		return cmp.Compare(af, bf), true
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// FormatCell renders a cell value as CSV text.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
