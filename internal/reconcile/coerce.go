package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// stringify renders a raw cell value the way a spreadsheet shows it.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// CoerceCode stringifies and trims a code cell.
func CoerceCode(v any) string {
	return strings.TrimSpace(stringify(v))
}

// CoerceName stringifies a name cell, substituting fallback when nothing usable remains.
func CoerceName(v any, fallback string) string {
	name := strings.TrimSpace(stringify(v))
	if name == "" {
		return fallback
	}
	return name
}

// CoerceQty converts a raw cell to a quantity. Missing or non-numeric values stay unset.
func CoerceQty(v any) Quantity {
	switch val := v.(type) {
	case nil:
		return Quantity{}
	case float64:
		return Qty(val)
	case int:
		return Qty(float64(val))
	case int64:
		return Qty(float64(val))
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return Quantity{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Quantity{}
	}
	return Qty(f)
}

// CoerceExpiryDate keeps only the calendar date: everything before the first 'T'.
func CoerceExpiryDate(v any) string {
	s := strings.TrimSpace(stringify(v))
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	return s
}

// CoerceUnitLabel returns the raw unit text used for unit lookup.
func CoerceUnitLabel(v any) string {
	return strings.TrimSpace(stringify(v))
}
