package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"weatherrelay/backend/services/weather-relay/internal/dispatch"
	"weatherrelay/backend/services/weather-relay/internal/ingest"
	"weatherrelay/backend/services/weather-relay/internal/models"
	"weatherrelay/backend/services/weather-relay/internal/registry"
)

// sliceSource emits fixed readings, then either fails or waits for cancellation.
type sliceSource struct {
	readings []models.Reading
	err      error
}

func (s *sliceSource) Name() string { return "slice" }

func (s *sliceSource) Run(ctx context.Context, out chan<- models.Reading) error {
	for _, r := range s.readings {
		select {
		case out <- r:
		case <-ctx.Done():
			return nil
		}
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

type latestSequence struct {
	mu    sync.Mutex
	items []*models.Reading
	calls int
}

func (l *latestSequence) Latest(context.Context) (*models.Reading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.calls
	if idx >= len(l.items) {
		idx = len(l.items) - 1
	}
	l.calls++
	return l.items[idx], nil
}

type memorySubscriber struct {
	id     string
	mu     sync.Mutex
	frames int
}

func (m *memorySubscriber) ID() string { return m.id }

func (m *memorySubscriber) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	return nil
}

func (m *memorySubscriber) Close() error { return nil }

func (m *memorySubscriber) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// recordingBroadcaster wraps a dispatcher and records broadcast timestamps.
type recordingBroadcaster struct {
	inner *dispatch.Dispatcher
	mu    sync.Mutex
	sent  []models.NormalizedReading
}

func (b *recordingBroadcaster) Dispatch(ctx context.Context, reading models.NormalizedReading) (bool, int, error) {
	sent, delivered, err := b.inner.Dispatch(ctx, reading)
	if sent {
		b.mu.Lock()
		b.sent = append(b.sent, reading)
		b.mu.Unlock()
	}
	return sent, delivered, err
}

func (b *recordingBroadcaster) broadcasts() []models.NormalizedReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.NormalizedReading(nil), b.sent...)
}

func newPipeline(t *testing.T, subs ...registry.Subscriber) *recordingBroadcaster {
	t.Helper()
	reg := registry.New(zaptest.NewLogger(t))
	for _, s := range subs {
		reg.Add(s)
	}
	return &recordingBroadcaster{inner: dispatch.NewDispatcher(reg, zaptest.NewLogger(t))}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRelayNormalizesBeforeBroadcast(t *testing.T) {
	sub := &memorySubscriber{id: "a"}
	b := newPipeline(t, sub)
	src := &sliceSource{readings: []models.Reading{{Timestamp: "T1", Temperature: models.Float(20), WindSpeed: models.Float(10)}}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRelay(src, b, zaptest.NewLogger(t)).Run(ctx) }()

	waitFor(t, func() bool { return len(b.broadcasts()) == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := b.broadcasts()[0]
	if *got.Temperature != 68.0 || *got.WindSpeed != 6.2 || got.Timestamp != "T1" {
		t.Fatalf("unexpected normalized reading %+v", got)
	}
	if sub.count() != 1 {
		t.Fatalf("expected one frame, got %d", sub.count())
	}
}

func TestRelayPollerRepeatedTimestampBroadcastsOnce(t *testing.T) {
	subs := []*memorySubscriber{{id: "a"}, {id: "b"}, {id: "c"}}
	b := newPipeline(t, subs[0], subs[1], subs[2])
	reader := &latestSequence{items: []*models.Reading{{Timestamp: "T1"}, {Timestamp: "T1"}}}
	poller := ingest.NewPoller(reader, ingest.PollerConfig{Interval: 2 * time.Millisecond}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRelay(poller, b, zaptest.NewLogger(t)).Run(ctx) }()

	waitFor(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return reader.calls >= 5
	})
	cancel()
	<-done

	if n := len(b.broadcasts()); n != 1 {
		t.Fatalf("expected exactly one broadcast for T1, got %d", n)
	}
	for _, s := range subs {
		if s.count() != 1 {
			t.Fatalf("subscriber %s got %d frames", s.id, s.count())
		}
	}
}

func TestRelayStreamBroadcastsInOrder(t *testing.T) {
	a, c := &memorySubscriber{id: "a"}, &memorySubscriber{id: "c"}
	b := newPipeline(t, a, c)
	src := &sliceSource{readings: []models.Reading{{Timestamp: "T1"}, {Timestamp: "T2"}}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewRelay(src, b, zaptest.NewLogger(t)).Run(ctx) }()

	waitFor(t, func() bool { return len(b.broadcasts()) == 2 })
	got := b.broadcasts()
	if got[0].Timestamp != "T1" || got[1].Timestamp != "T2" {
		t.Fatalf("expected T1 then T2, got %+v", got)
	}
	if a.count() != 2 || c.count() != 2 {
		t.Fatalf("expected both subscribers to get two frames")
	}
}

func TestRelayReportsSourceFailure(t *testing.T) {
	fatal := errors.New("feed gone")
	b := newPipeline(t)
	src := &sliceSource{readings: []models.Reading{{Timestamp: "T1"}}, err: fatal}

	err := NewRelay(src, b, zaptest.NewLogger(t)).Run(context.Background())
	if !errors.Is(err, fatal) {
		t.Fatalf("expected source failure to surface, got %v", err)
	}
}
