package message

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// DynamicMessage is a row of arbitrary fields received from outside the process,
// typically parsed from JSON.
type DynamicMessage map[string]interface{}

// GetFloat64 returns the numeric value of key. Missing keys, nulls and
// non-numeric values report false.
func (dm DynamicMessage) GetFloat64(key string) (float64, bool) {
	val, exists := dm[key]
	if !exists || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// HasNonNull checks if a key exists and its value is not explicitly null.
func (dm DynamicMessage) HasNonNull(key string) bool {
	val, exists := dm[key]
	return exists && val != nil
}

var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// GetTime parses the string stored under key as a timestamp.
func (dm DynamicMessage) GetTime(key string) (time.Time, bool) {
	s, ok := dm[key].(string)
	if !ok {
		return time.Time{}, false
	}
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GetFieldSnippet returns a string snippet of a field's value, useful for logging.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}
	if maxLength <= 0 {
		return "..."
	}
	s := fmt.Sprintf("%v", value)
	if len(s) > maxLength {
		return s[:maxLength] + "..."
	}
	return s
}

// ToRow converts the message into a row with columns in key order. Integral
// numbers become Int, other numbers Float. Nested objects and arrays are kept
// as their JSON text. Null fields are left out, so the table fills them with Null.
func (dm DynamicMessage) ToRow() *dataframe.Row {
	keys := make([]string, 0, len(dm))
	for k, v := range dm {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	row := dataframe.NewRow()
	for _, k := range keys {
		row.Set(k, toValue(dm[k]))
	}
	return row
}

func toValue(v interface{}) dataframe.Value {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return dataframe.Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return dataframe.Float(f)
		}
		return dataframe.String(x.String())
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(x)
		if err != nil {
			return dataframe.String(fmt.Sprintf("%v", x))
		}
		return dataframe.String(string(b))
	}
	if val, ok := dataframe.ValueOf(v); ok {
		return val
	}
	return dataframe.String(fmt.Sprintf("%v", v))
}
