package sensor

import (
	"fmt"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/transform"
)

// DefaultColumns names the three axes of a motion sensor.
var DefaultColumns = []string{"x", "y", "z"}

// Values writes the reading values into the named columns. Values beyond the
// given names are written as "value_<i>".
func Values(columns ...string) transform.Step[Event] {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	names := append([]string(nil), columns...)
	return transform.StepFunc[Event](func(e Event, row *dataframe.Row) {
		for i, v := range e.Values {
			name := fmt.Sprintf("value_%d", i)
			if i < len(names) {
				name = names[i]
			}
			row.Set(name, dataframe.Float(v))
		}
	})
}

// Accuracy writes the reading accuracy into the "accuracy" column.
func Accuracy() transform.Step[Event] {
	return transform.StepFunc[Event](func(e Event, row *dataframe.Row) {
		row.Set("accuracy", dataframe.Int(int64(e.Accuracy)))
	})
}

// Timestamp writes the reading time and the time since the previous reading,
// in nanoseconds.
func Timestamp() transform.Step[Event] {
	return transform.EventTimestamp(func(e Event) int64 { return e.Timestamp }, transform.SystemClockNanos)
}
