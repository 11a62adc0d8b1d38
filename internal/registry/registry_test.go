package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sanspareilsmyn/sensorlens/internal/accumulator"
	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/supplier"
	"github.com/sanspareilsmyn/sensorlens/internal/transform"
)

// fakeRecorder records the calls it receives, in order, into a shared journal.
type fakeRecorder struct {
	name     string
	startErr error
	journal  *journal

	recording bool
	closed    bool
	table     *dataframe.Table
}

type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) get() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func newFake(name string, j *journal) *fakeRecorder {
	tbl := dataframe.NewTable(name)
	tbl.AppendRow(dataframe.RowOf("v", 1))
	return &fakeRecorder{name: name, journal: j, table: tbl}
}

func (f *fakeRecorder) Name() string { return f.name }

func (f *fakeRecorder) StartRecording() error {
	f.journal.add("start " + f.name)
	if f.startErr != nil {
		return f.startErr
	}
	f.recording = true
	return nil
}

func (f *fakeRecorder) StopRecording() {
	f.journal.add("stop " + f.name)
	f.recording = false
}

func (f *fakeRecorder) ClearDataFrame() {
	f.journal.add("clear " + f.name)
	f.table.Clear()
}

func (f *fakeRecorder) GetDataFrame() *dataframe.Table { return f.table.Clone() }

func (f *fakeRecorder) DrainDataFrame() *dataframe.Table {
	t := f.table
	f.table = dataframe.NewTable(f.name)
	return t
}

func (f *fakeRecorder) Close() {
	f.journal.add("close " + f.name)
	f.closed = true
}

func TestPutCatchesUpWithState(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	assert.Equal(t, Inactive, r.State())

	a := newFake("a", j)
	prev, err := r.Put("a", a)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.False(t, a.recording)

	require.NoError(t, r.Start())
	assert.True(t, a.recording)

	b := newFake("b", j)
	_, err = r.Put("b", b)
	require.NoError(t, err)
	assert.True(t, b.recording, "recorder added while active starts immediately")

	r.Stop()
	assert.False(t, a.recording)
	assert.False(t, b.recording)
	assert.Equal(t, Inactive, r.State())
}

func TestPutReplacesAfterStoppingOld(t *testing.T) {
	j := &journal{}
	r := New[int](zaptest.NewLogger(t))
	require.NoError(t, r.Start())

	old := newFake("old", j)
	_, err := r.Put(1, old)
	require.NoError(t, err)

	repl := newFake("new", j)
	prev, err := r.Put(1, repl)
	require.NoError(t, err)
	assert.Same(t, old, prev)
	assert.True(t, old.closed)
	assert.Equal(t, []string{"start old", "stop old", "close old", "start new"}, j.get())

	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Same(t, repl, got)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []int{1}, r.Keys())
}

func TestRemoveStopsBeforeDetaching(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	require.NoError(t, r.Start())
	a := newFake("a", j)
	_, err := r.Put("a", a)
	require.NoError(t, err)

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Same(t, a, removed)
	assert.False(t, a.recording)
	assert.Equal(t, []string{"start a", "stop a", "close a"}, j.get())
	assert.Equal(t, 0, r.Len())

	_, ok = r.Remove("a")
	assert.False(t, ok)
}

func TestClearEmptiesTablesBeforeRemoving(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	for _, name := range []string{"a", "b"} {
		_, err := r.Put(name, newFake(name, j))
		require.NoError(t, err)
	}
	r.Clear()
	assert.Equal(t, []string{
		"clear a", "clear b",
		"stop a", "close a",
		"stop b", "close b",
	}, j.get())
	assert.Empty(t, r.Keys())
}

func TestDataFramesFollowKeyOrder(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	for _, name := range []string{"z", "a", "m"} {
		_, err := r.Put(name, newFake(name, j))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"z", "a", "m"}, r.Keys())

	var names []string
	for _, df := range r.GetDataFrames() {
		names = append(names, df.Name())
		assert.Equal(t, 1, df.RowCount())
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)

	drained := r.DrainDataFrames()
	require.Len(t, drained, 3)
	assert.Equal(t, 1, drained[0].RowCount())
	for _, df := range r.GetDataFrames() {
		assert.Equal(t, 0, df.RowCount())
	}
}

func TestStartReportsEveryFailure(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	errA, errC := errors.New("a broken"), errors.New("c broken")

	a, b, c := newFake("a", j), newFake("b", j), newFake("c", j)
	a.startErr, c.startErr = errA, errC
	for _, f := range []*fakeRecorder{a, b, c} {
		_, err := r.Put(f.name, f)
		require.NoError(t, err)
	}

	err := r.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.True(t, b.recording)
	assert.Equal(t, Active, r.State())
}

func TestDestroyIsTerminal(t *testing.T) {
	j := &journal{}
	r := New[string](zaptest.NewLogger(t))
	a := newFake("a", j)
	_, err := r.Put("a", a)
	require.NoError(t, err)
	require.NoError(t, r.Start())

	r.Destroy()
	r.Destroy()
	assert.Equal(t, Destroyed, r.State())
	assert.True(t, a.closed)
	assert.False(t, a.recording)
	assert.Equal(t, []string{"start a", "stop a", "close a"}, j.get())

	_, err = r.Put("b", newFake("b", j))
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, r.Start(), ErrDestroyed)

	drained := r.DrainDataFrames()
	require.Len(t, drained, 1)
	assert.Equal(t, 1, drained[0].RowCount())
}

func TestPutRejectsNil(t *testing.T) {
	r := New[string](zaptest.NewLogger(t))
	_, err := r.Put("x", nil)
	assert.ErrorIs(t, err, ErrNilRecorder)
}

func TestRegistryDrivesAccumulators(t *testing.T) {
	logger := zaptest.NewLogger(t)
	r := New[string](logger)

	queues := map[string]*supplier.Queue[*dataframe.Row]{}
	for _, name := range []string{"left", "right"} {
		acc, err := accumulator.New[*dataframe.Row](accumulator.Config{Name: name},
			transform.NewChain[*dataframe.Row](transform.CopyRow()), nil, logger)
		require.NoError(t, err)
		q := supplier.NewQueue[*dataframe.Row]()
		require.NoError(t, acc.SetSupplier(q))
		queues[name] = q
		_, err = r.Put(name, acc)
		require.NoError(t, err)
	}

	require.NoError(t, r.Start())
	require.NoError(t, queues["left"].Push(dataframe.RowOf("x", 1)))
	require.NoError(t, queues["right"].Push(dataframe.RowOf("y", 2)))

	r.Stop()
	assert.ErrorIs(t, queues["left"].Push(dataframe.RowOf("x", 3)), supplier.ErrNotActive)

	require.NoError(t, r.Start())
	require.NoError(t, queues["left"].Push(dataframe.RowOf("x", 4)))

	r.Destroy()
	dfs := r.GetDataFrames()
	require.Len(t, dfs, 2)
	assert.Equal(t, 2, dfs[0].RowCount())
	assert.Equal(t, 1, dfs[1].RowCount())
}
