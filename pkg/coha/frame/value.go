package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the scalar type a column is cast to.
type Kind int

const (
	// KindAny leaves values as they were read.
	KindAny Kind = iota
	KindInt64
	KindInt32
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "Int64"
	case KindInt32:
		return "Int32"
	case KindString:
		return "String"
	default:
		return "Any"
	}
}

// Cast converts v to kind k. Values that cannot be represented become nil,
// which is the absent value everywhere in this package.
func Cast(v any, k Kind) any {
	if v == nil {
		return nil
	}
	switch k {
	case KindInt64:
		if n, ok := toInt64(v); ok {
			return n
		}
		return nil
	case KindInt32:
		n, ok := toInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil
		}
		return int32(n)
	case KindString:
		return toString(v)
	default:
		return v
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		return floatToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseInt64(string(x))
	case string:
		return parseInt64(x)
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

func parseInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// CSV exports sometimes write integral ids as "12.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToInt64(f)
	}
	return 0, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Compare orders two values. Absent values sort after everything else,
// numbers before strings.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	ai, aNum := numeric(a)
	bi, bNum := numeric(b)
	switch {
	case aNum && bNum:
		return compareFloat(ai, bi)
	case aNum:
		return -1
	case bNum:
		return 1
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs)
	}
	return strings.Compare(toString(a), toString(b))
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
