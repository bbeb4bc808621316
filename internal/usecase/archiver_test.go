package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDesk/internal/domain/models"
	"QuantDesk/pkg/logger"
)

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	mu    sync.Mutex
	ticks []models.Tick
}

func (s *fakeStorage) Init(context.Context) error { return nil }

func (s *fakeStorage) Store(_ context.Context, t models.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = append(s.ticks, t)
	return nil
}

func (s *fakeStorage) StoreBatch(ctx context.Context, ticks []models.Tick) error {
	for _, t := range ticks {
		if err := s.Store(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestArchiverKafkaBackend(t *testing.T) {
	pub := &fakePublisher{}
	a := NewArchiver(pub, nil, BackendKafka, logger.Nop(), nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Enqueue(models.Tick{Symbol: "AAPL", Time: ts(0), Price: 10})
	a.Enqueue(models.Tick{Symbol: "MSFT", Time: ts(0), Price: 20})

	waitFor(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.keys) == 2
	})
}

func TestArchiverClickHouseBackend(t *testing.T) {
	store := &fakeStorage{}
	a := NewArchiver(nil, store, BackendClickHouse, logger.Nop(), nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Enqueue(models.Tick{Symbol: "AAPL", Time: ts(0), Price: 10})

	waitFor(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.ticks) == 1
	})
}

func TestArchiverNoneBackendDiscards(t *testing.T) {
	a := NewArchiver(nil, nil, BackendNone, logger.Nop(), nopMetrics{})
	a.Enqueue(models.Tick{Symbol: "AAPL"})
	assert.Len(t, a.queue, 0)
}

func TestArchiverBackendFailureDoesNotStopRun(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	a := NewArchiver(pub, nil, BackendKafka, logger.Nop(), nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Enqueue(models.Tick{Symbol: "AAPL"})
	a.Enqueue(models.Tick{Symbol: "MSFT"})

	waitFor(t, func() bool { return len(a.queue) == 0 })
	require.NotPanics(t, func() { a.Enqueue(models.Tick{Symbol: "TOST"}) })
}
