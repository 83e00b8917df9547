package conversation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu        sync.Mutex
	inFlight  map[int64]int
	maxPerID  map[int64]int
	order     map[int64][]int
	peakTotal int32
	current   int32
	delay     time.Duration
	panicOn   int
}

func newRecordingHandler(delay time.Duration) *recordingHandler {
	return &recordingHandler{
		inFlight: map[int64]int{},
		maxPerID: map[int64]int{},
		order:    map[int64][]int{},
		delay:    delay,
	}
}

func (h *recordingHandler) Dispatch(ctx context.Context, ev Event) {
	total := atomic.AddInt32(&h.current, 1)
	defer atomic.AddInt32(&h.current, -1)
	for {
		peak := atomic.LoadInt32(&h.peakTotal)
		if total <= peak || atomic.CompareAndSwapInt32(&h.peakTotal, peak, total) {
			break
		}
	}

	h.mu.Lock()
	h.inFlight[ev.UserID]++
	if h.inFlight[ev.UserID] > h.maxPerID[ev.UserID] {
		h.maxPerID[ev.UserID] = h.inFlight[ev.UserID]
	}
	h.order[ev.UserID] = append(h.order[ev.UserID], ev.UpdateID)
	h.mu.Unlock()

	time.Sleep(h.delay)

	h.mu.Lock()
	h.inFlight[ev.UserID]--
	h.mu.Unlock()

	if h.panicOn != 0 && ev.UpdateID == h.panicOn {
		panic("handler exploded")
	}
}

func TestDispatcher_SerializesPerIdentity(t *testing.T) {
	h := newRecordingHandler(2 * time.Millisecond)
	d := NewDispatcher(h, DispatcherOptions{LaneBuffer: 4}, zerolog.Nop())

	var wg sync.WaitGroup
	for user := int64(1); user <= 5; user++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			for i := 1; i <= 20; i++ {
				assert.True(t, d.Submit(Event{UserID: user, UpdateID: i}))
			}
		}(user)
	}
	wg.Wait()
	require.NoError(t, d.Stop(context.Background()))

	h.mu.Lock()
	defer h.mu.Unlock()
	for user := int64(1); user <= 5; user++ {
		assert.Equal(t, 1, h.maxPerID[user], "user %d", user)
		require.Len(t, h.order[user], 20)
		for i, id := range h.order[user] {
			assert.Equal(t, i+1, id)
		}
	}
	assert.Greater(t, atomic.LoadInt32(&h.peakTotal), int32(1))
}

func TestDispatcher_LaneRetiresWhenIdle(t *testing.T) {
	h := newRecordingHandler(0)
	d := NewDispatcher(h, DispatcherOptions{LaneIdle: 10 * time.Millisecond}, zerolog.Nop())
	defer func() { _ = d.Stop(context.Background()) }()

	require.True(t, d.Submit(Event{UserID: 7, UpdateID: 1}))
	assert.Eventually(t, func() bool { return d.Lanes() == 0 }, time.Second, 5*time.Millisecond)

	require.True(t, d.Submit(Event{UserID: 7, UpdateID: 2}))
	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.order[7]) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_SurvivesHandlerPanic(t *testing.T) {
	h := newRecordingHandler(0)
	h.panicOn = 1
	d := NewDispatcher(h, DispatcherOptions{}, zerolog.Nop())

	require.True(t, d.Submit(Event{UserID: 9, UpdateID: 1}))
	require.True(t, d.Submit(Event{UserID: 9, UpdateID: 2}))
	require.NoError(t, d.Stop(context.Background()))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []int{1, 2}, h.order[9])
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	d := NewDispatcher(newRecordingHandler(0), DispatcherOptions{}, zerolog.Nop())
	require.NoError(t, d.Stop(context.Background()))
	assert.False(t, d.Submit(Event{UserID: 1}))
}

func TestDispatcher_StopHonoursDeadline(t *testing.T) {
	h := newRecordingHandler(200 * time.Millisecond)
	d := NewDispatcher(h, DispatcherOptions{}, zerolog.Nop())
	require.True(t, d.Submit(Event{UserID: 1, UpdateID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}
