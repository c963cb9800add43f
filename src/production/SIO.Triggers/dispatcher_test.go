package siotriggers

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	sioqueue "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Queue"
)

type fakeTriggerRepo struct {
	mu        sync.Mutex
	triggers  map[int64]*siomodels.Trigger
	listCalls int
}

func newFakeTriggerRepo(triggers ...*siomodels.Trigger) *fakeTriggerRepo {
	repo := &fakeTriggerRepo{triggers: make(map[int64]*siomodels.Trigger)}
	for _, trigger := range triggers {
		repo.triggers[trigger.ID] = trigger
	}
	return repo
}

func (f *fakeTriggerRepo) GetByID(_ context.Context, id int64) (*siomodels.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trigger, ok := f.triggers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return trigger, nil
}

func (f *fakeTriggerRepo) ListActiveByVariable(_ context.Context, variableID int64) ([]siomodels.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	var out []siomodels.Trigger
	for _, trigger := range f.triggers {
		if trigger.CloudVariableID == variableID && trigger.IsActive {
			out = append(out, *trigger)
		}
	}
	return out, nil
}

func (f *fakeTriggerRepo) ClaimFiring(_ context.Context, triggerID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	trigger, ok := f.triggers[triggerID]
	if !ok {
		return false, sql.ErrNoRows
	}
	if trigger.IsOnCooldown(now) {
		return false, nil
	}

	claimedAt := now
	trigger.LastTriggeredAt = &claimedAt
	return true, nil
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []int64
}

func (f *fakeRunner) ExecuteTrigger(_ context.Context, triggerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, triggerID)
	return nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// dispatchAndDrain runs one event through the dispatcher and waits for every
// enqueued action task to finish
func dispatchAndDrain(t *testing.T, repo *fakeTriggerRepo, runner *fakeRunner, now time.Time, events ...siomodels.CloudVariableUpdated) {
	t.Helper()

	queue := sioqueue.New(config.QueueConfig{Workers: 1, BufferSize: 64, MaxAttempts: 1}, logger.NewNopLogger())
	queue.Start(context.Background())

	dispatcher := NewDispatcher(repo, queue, runner, logger.NewNopLogger())
	dispatcher.now = func() time.Time { return now }

	for _, event := range events {
		dispatcher.HandleVariableUpdated(context.Background(), event)
	}
	queue.Stop()
}

func tempTrigger(cooldownSeconds int, lastTriggeredAt *time.Time) *siomodels.Trigger {
	return &siomodels.Trigger{
		ID:              1,
		CloudVariableID: 100,
		Name:            "High temperature",
		Operator:        siomodels.OperatorGreaterThan,
		Value:           "100",
		ActionType:      siomodels.ActionEmail,
		IsActive:        true,
		CooldownSeconds: cooldownSeconds,
		LastTriggeredAt: lastTriggeredAt,
	}
}

func variableEvent(value interface{}) siomodels.CloudVariableUpdated {
	return siomodels.CloudVariableUpdated{
		Variable: &siomodels.CloudVariable{ID: 100, VariableName: "temperature"},
		NewValue: siomodels.WrapValue(value),
	}
}

func TestDispatcherFiresWhenConditionMet(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeTriggerRepo(tempTrigger(0, nil))
	runner := &fakeRunner{}

	dispatchAndDrain(t, repo, runner, now, variableEvent(150.0))

	require.Equal(t, 1, runner.callCount())
	assert.Equal(t, int64(1), runner.calls[0])
	require.NotNil(t, repo.triggers[1].LastTriggeredAt)
	assert.Equal(t, now, *repo.triggers[1].LastTriggeredAt)
}

func TestDispatcherSkipsUnmetCondition(t *testing.T) {
	repo := newFakeTriggerRepo(tempTrigger(0, nil))
	runner := &fakeRunner{}

	dispatchAndDrain(t, repo, runner, time.Now(), variableEvent(50.0))

	assert.Zero(t, runner.callCount())
	assert.Nil(t, repo.triggers[1].LastTriggeredAt)
}

func TestDispatcherHonorsCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fired := now.Add(-5 * time.Minute)
	repo := newFakeTriggerRepo(tempTrigger(3600, &fired))
	runner := &fakeRunner{}

	dispatchAndDrain(t, repo, runner, now, variableEvent(150.0))

	assert.Zero(t, runner.callCount())
	assert.Equal(t, fired, *repo.triggers[1].LastTriggeredAt)
}

func TestDispatcherRefiresAfterCooldownExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fired := now.Add(-2 * time.Hour)
	repo := newFakeTriggerRepo(tempTrigger(3600, &fired))
	runner := &fakeRunner{}

	dispatchAndDrain(t, repo, runner, now, variableEvent(150.0))

	assert.Equal(t, 1, runner.callCount())
	assert.Equal(t, now, *repo.triggers[1].LastTriggeredAt)
}

func TestDispatcherFiresAtMostOncePerCooldownWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeTriggerRepo(tempTrigger(3600, nil))
	runner := &fakeRunner{}

	// two satisfying updates in a row: only the first claims the firing
	dispatchAndDrain(t, repo, runner, now, variableEvent(150.0), variableEvent(160.0))

	assert.Equal(t, 1, runner.callCount())
}

func TestDispatcherIgnoresMissingScalar(t *testing.T) {
	repo := newFakeTriggerRepo(tempTrigger(0, nil))
	runner := &fakeRunner{}

	events := []siomodels.CloudVariableUpdated{
		{Variable: &siomodels.CloudVariable{ID: 100}, NewValue: map[string]interface{}{"lat": 45.0, "lon": -73.0}},
		{Variable: &siomodels.CloudVariable{ID: 100}, NewValue: map[string]interface{}{"value": nil}},
	}
	dispatchAndDrain(t, repo, runner, time.Now(), events...)

	assert.Zero(t, runner.callCount())
	assert.Zero(t, repo.listCalls)
}

func TestDispatcherSkipsInactiveTriggers(t *testing.T) {
	trigger := tempTrigger(0, nil)
	trigger.IsActive = false
	repo := newFakeTriggerRepo(trigger)
	runner := &fakeRunner{}

	dispatchAndDrain(t, repo, runner, time.Now(), variableEvent(150.0))

	assert.Zero(t, runner.callCount())
}
