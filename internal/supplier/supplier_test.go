package supplier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ events []int }

func (r *recorder) OnEvent(e int) { r.events = append(r.events, e) }

func TestQueueDeliversToRegisteredListeners(t *testing.T) {
	q := NewQueue[int]()
	a, b := &recorder{}, &recorder{}

	require.ErrorIs(t, q.Push(1), ErrNotActive)

	require.NoError(t, q.Initialize())
	q.Register(a)
	q.Register(a)
	q.Register(b)
	assert.Equal(t, 2, q.Listeners())

	require.NoError(t, q.Push(2))
	q.Unregister(b)
	require.NoError(t, q.Push(3))

	assert.Equal(t, []int{2, 3}, a.events)
	assert.Equal(t, []int{2}, b.events)

	require.NoError(t, q.Dispose())
	assert.ErrorIs(t, q.Push(4), ErrNotActive)

	// a second lifecycle works the same way
	require.NoError(t, q.Initialize())
	require.NoError(t, q.Push(5))
	assert.Equal(t, []int{2, 3, 5}, a.events)
}

func TestListenerFunc(t *testing.T) {
	var got []string
	f := ListenerFunc[string](func(e string) { got = append(got, e) })
	q := NewQueue[string]()
	require.NoError(t, q.Initialize())
	q.Register(&f)
	require.NoError(t, q.Push("a"))
	q.Unregister(&f)
	require.NoError(t, q.Push("b"))
	assert.Equal(t, []string{"a"}, got)
}

func TestFuncDefaults(t *testing.T) {
	f := &Func[int]{}
	assert.True(t, f.IsReady())
	assert.NoError(t, f.Initialize())
	assert.NoError(t, f.Dispose())
	_, err := f.Produce()
	assert.ErrorIs(t, err, ErrNoProducer)

	boom := errors.New("boom")
	calls := 0
	f = NewFunc(func() (int, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return calls, nil
	})
	f.ReadyFn = func() bool { return calls < 3 }

	v, err := f.Produce()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, err = f.Produce()
	assert.ErrorIs(t, err, boom)
	assert.True(t, f.IsReady())
	_, _ = f.Produce()
	assert.False(t, f.IsReady())
}

func TestChannelPoller(t *testing.T) {
	ch := make(chan int, 2)
	c := NewChannel[int](ch)
	assert.False(t, c.IsReady())
	_, err := c.Produce()
	assert.ErrorIs(t, err, ErrNotReady)

	ch <- 7
	assert.True(t, c.IsReady())
	v, err := c.Produce()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	close(ch)
	_, err = c.Produce()
	assert.ErrorIs(t, err, ErrChannelClosed)
}
