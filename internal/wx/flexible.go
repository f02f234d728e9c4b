package wx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexField tolerates upstream fields that arrive as a number, a
// string, or null. The aviation weather APIs mix these freely (wind
// direction "VRB", visibility "10+", numeric temperatures).
type flexField struct {
	value any
}

func (f *flexField) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.value = num
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		f.value = str
		return nil
	}

	if string(data) == "null" {
		f.value = nil
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into flexField", data)
}

// Float64 returns the numeric value and whether one could be derived.
func (f *flexField) Float64() (float64, bool) {
	switch v := f.value.(type) {
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String returns the value rendered as a string.
func (f *flexField) String() string {
	switch v := f.value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// IsEmpty reports whether no value was present upstream.
func (f *flexField) IsEmpty() bool {
	if f.value == nil {
		return true
	}
	if s, ok := f.value.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}
