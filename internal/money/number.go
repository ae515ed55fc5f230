package money

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PaiseThreshold is the magnitude above which an untagged amount is assumed
// to be denominated in paise.
const PaiseThreshold = 1000

// SafeNumber coerces loosely typed input into a float64. Nil, empty strings,
// unparsable values and non-finite numbers all collapse to zero.
func SafeNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case string:
		f = parseNumeric(n)
	case json.Number:
		f = parseNumeric(n.String())
	case decimal.Decimal:
		f = n.InexactFloat64()
	case Money:
		f = n.Major()
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return 0
		}
		if rv.IsNil() {
			return 0
		}
		return SafeNumber(rv.Elem().Interface())
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumeric(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// NormalizeAmountToRupees converts an untagged amount into rupees. Values whose
// magnitude exceeds PaiseThreshold are treated as paise and divided by 100.
//
// Amounts that carry their unit should use Money instead.
func NormalizeAmountToRupees(v any) float64 {
	f := SafeNumber(v)
	if math.Abs(f) > PaiseThreshold {
		return f / 100
	}
	return f
}
