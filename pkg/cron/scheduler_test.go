package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"
	"github.com/FACorreiaa/formfill-api/pkg/logger"
)

type fakePurger struct {
	mu       sync.Mutex
	triggers []service.Trigger
	err      error
	done     chan struct{}
}

func newFakePurger() *fakePurger {
	return &fakePurger{done: make(chan struct{}, 8)}
}

func (p *fakePurger) Purge(ctx context.Context, trigger service.Trigger) (*service.PurgeResult, error) {
	p.mu.Lock()
	p.triggers = append(p.triggers, trigger)
	p.mu.Unlock()
	p.done <- struct{}{}

	if p.err != nil {
		return nil, p.err
	}
	return &service.PurgeResult{FilesDeleted: 1}, nil
}

func (p *fakePurger) calls() []service.Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.Trigger(nil), p.triggers...)
}

func TestSchedulerRunNow(t *testing.T) {
	purger := newFakePurger()
	s := NewScheduler(purger, "@every 30m", logger.Discard())

	s.RunNow()

	select {
	case <-purger.done:
	case <-time.After(5 * time.Second):
		t.Fatal("purge did not run")
	}
	assert.Equal(t, []service.Trigger{service.TriggerSchedule}, purger.calls())
}

func TestSchedulerPurgeErrorIsLogged(t *testing.T) {
	purger := newFakePurger()
	purger.err = errors.New("cleanup failed: outputs: permission denied")
	s := NewScheduler(purger, "@every 30m", logger.Discard())

	// Must not panic on a failed sweep
	s.purgeTransientFiles()
	assert.Len(t, purger.calls(), 1)
}

func TestSchedulerStartStop(t *testing.T) {
	purger := newFakePurger()
	s := NewScheduler(purger, "@every 1s", logger.Discard())

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	select {
	case <-purger.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled purge did not run")
	}

	<-s.Stop().Done()
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	s := NewScheduler(newFakePurger(), "every now and then", logger.Discard())
	assert.Error(t, s.Start())
}
