package transform

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

type fakeClock struct{ readings []int64 }

func (c *fakeClock) read() int64 {
	v := c.readings[0]
	c.readings = c.readings[1:]
	return v
}

func get(t *testing.T, row *dataframe.Row, name string) dataframe.Value {
	t.Helper()
	v, ok := row.Get(name)
	require.True(t, ok, "missing column %q in %v", name, row)
	return v
}

func TestArithmeticSteps(t *testing.T) {
	tests := []struct {
		name string
		step Step[struct{}]
		in   *dataframe.Row
		want map[string]dataframe.Value
	}{
		{
			name: "add to matching numeric columns only",
			step: AddValues[struct{}](dataframe.RowOf("a", 5, "missing", 1)),
			in:   dataframe.RowOf("a", 1, "b", 2),
			want: map[string]dataframe.Value{"a": dataframe.Float(6), "b": dataframe.Int(2)},
		},
		{
			name: "non numeric cell is left untouched",
			step: AddValues[struct{}](dataframe.RowOf("a", 5)),
			in:   dataframe.RowOf("a", "not_a_number"),
			want: map[string]dataframe.Value{"a": dataframe.String("not_a_number")},
		},
		{
			name: "non numeric constant is ignored",
			step: MultiplyValues[struct{}](dataframe.RowOf("a", "x")),
			in:   dataframe.RowOf("a", 3),
			want: map[string]dataframe.Value{"a": dataframe.Int(3)},
		},
		{
			name: "numeric strings are parsed",
			step: SubtractValues[struct{}](dataframe.RowOf("a", "0.5")),
			in:   dataframe.RowOf("a", "2"),
			want: map[string]dataframe.Value{"a": dataframe.Float(1.5)},
		},
		{
			name: "multiply",
			step: MultiplyValues[struct{}](dataframe.RowOf("a", 2.5)),
			in:   dataframe.RowOf("a", 4),
			want: map[string]dataframe.Value{"a": dataframe.Float(10)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.step.Apply(struct{}{}, tt.in)
			require.Equal(t, len(tt.want), tt.in.Len())
			for k, v := range tt.want {
				assert.Equal(t, v, get(t, tt.in, k), "column %q", k)
			}
		})
	}
}

func TestDivideByZeroFollowsIEEE(t *testing.T) {
	row := dataframe.RowOf("pos", 1, "zero", 0)
	DivideValues[int](dataframe.RowOf("pos", 0, "zero", 0)).Apply(0, row)

	assert.True(t, math.IsInf(get(t, row, "pos").Float(), 1))
	assert.True(t, math.IsNaN(get(t, row, "zero").Float()))
}

func TestSelectColumns(t *testing.T) {
	row := dataframe.RowOf("a", 1, "b", 2, "c", 3)
	SelectColumns[int]("c", "a", "absent").Apply(0, row)
	assert.Equal(t, []string{"a", "c"}, row.Keys())
}

func TestRenameAndConstant(t *testing.T) {
	row := dataframe.RowOf("a", 1, "b", 2)
	RenameColumns[int](map[string]string{"a": "alpha"}).Apply(0, row)
	assert.Equal(t, []string{"b", "alpha"}, row.Keys())

	Constant[int](dataframe.RowOf("device", "watch", "b", 0)).Apply(0, row)
	assert.Equal(t, dataframe.String("watch"), get(t, row, "device"))
	assert.Equal(t, dataframe.Int(0), get(t, row, "b"))
}

func TestTimestampDeltas(t *testing.T) {
	clock := &fakeClock{readings: []int64{100, 150, 160, 400}}
	step := ClockTimestamp[struct{}](PrefixEpoch, clock.read)
	tsCol, deltaCol := TimestampColumns(PrefixEpoch)

	wantTS := []int64{150, 160, 400}
	wantDelta := []int64{50, 10, 240}
	for i := range wantTS {
		row := dataframe.NewRow()
		step.Apply(struct{}{}, row)
		assert.Equal(t, dataframe.Int(wantTS[i]), get(t, row, tsCol))
		assert.Equal(t, dataframe.Int(wantDelta[i]), get(t, row, deltaCol))
	}
}

func TestEventTimestampUsesReferenceForFirstDelta(t *testing.T) {
	type event struct{ ts int64 }
	step := EventTimestamp[event](func(e event) int64 { return e.ts }, func() int64 { return 1_000 })

	row := dataframe.NewRow()
	step.Apply(event{ts: 1_250}, row)
	assert.Equal(t, dataframe.Int(1_250), get(t, row, "sensor_timestamp"))
	assert.Equal(t, dataframe.Int(250), get(t, row, "sensor_delta_timestamp"))

	row = dataframe.NewRow()
	step.Apply(event{ts: 1_300}, row)
	assert.Equal(t, dataframe.Int(50), get(t, row, "sensor_delta_timestamp"))
}

func TestTimestampStepsHaveIndependentState(t *testing.T) {
	a := EpochTimestamp[int]()
	b := EpochTimestamp[int]()
	rowA := dataframe.NewRow()
	a.Apply(0, rowA)
	a.Apply(0, dataframe.NewRow())
	rowB := dataframe.NewRow()
	b.Apply(0, rowB)

	assert.True(t, rowB.Has("epoch_timestamp"))
	assert.GreaterOrEqual(t, get(t, rowB, "epoch_delta_timestamp").Int(), int64(0))

	sys := SystemClockTimestamp[int]()
	row := dataframe.NewRow()
	sys.Apply(0, row)
	assert.True(t, row.Has("systemclock_timestamp"))
	assert.True(t, row.Has("systemclock_delta_timestamp"))
}

func TestChainOrderIsSignificant(t *testing.T) {
	clock := &fakeClock{readings: []int64{0, 1000}}
	chain := NewChain[int](
		StepFunc[int](func(e int, row *dataframe.Row) { row.Set("x", dataframe.Int(int64(e))) }),
		ClockTimestamp[int](PrefixEpoch, clock.read),
		SubtractValues[int](dataframe.RowOf("epoch_timestamp", 1000)),
		SelectColumns[int]("x", "epoch_timestamp"),
		nil,
	)
	require.Equal(t, 4, chain.Len())

	row := chain.Apply(7)
	assert.Equal(t, []string{"x", "epoch_timestamp"}, row.Keys())
	assert.Equal(t, dataframe.Float(0), get(t, row, "epoch_timestamp"))
	assert.Equal(t, dataframe.Int(7), get(t, row, "x"))
}

func TestCopyRow(t *testing.T) {
	chain := NewChain[*dataframe.Row](CopyRow(), AddValues[*dataframe.Row](dataframe.RowOf("x", 1)))
	event := dataframe.RowOf("x", 1, "s", "a")
	row := chain.Apply(event)
	assert.Equal(t, dataframe.Float(2), get(t, row, "x"))
	assert.Equal(t, dataframe.Int(1), get(t, event, "x"))
	assert.Equal(t, 0, chain.Apply(nil).Len())
}

func TestLabelCanBeSwappedConcurrently(t *testing.T) {
	label := NewLabel[int]("activity")
	row := dataframe.NewRow()
	label.Apply(0, row)
	assert.False(t, row.Has("activity"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				label.Set(dataframe.String("walking"))
				label.Apply(0, dataframe.NewRow())
			}
		}()
	}
	wg.Wait()

	row = dataframe.NewRow()
	label.Apply(0, row)
	assert.Equal(t, dataframe.String("walking"), get(t, row, "activity"))

	label.Clear()
	row = dataframe.NewRow()
	label.Apply(0, row)
	assert.False(t, row.Has("activity"))
	assert.Equal(t, "activity", label.Column())
}
