package sioactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type fakeTriggerRepo struct {
	triggers map[int64]*siomodels.Trigger
}

func (f *fakeTriggerRepo) GetByID(_ context.Context, id int64) (*siomodels.Trigger, error) {
	trigger, ok := f.triggers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return trigger, nil
}

func (f *fakeTriggerRepo) ListActiveByVariable(context.Context, int64) ([]siomodels.Trigger, error) {
	return nil, nil
}

func (f *fakeTriggerRepo) ClaimFiring(context.Context, int64, time.Time) (bool, error) {
	return true, nil
}

type fakeVariableRepo struct {
	variable *siomodels.CloudVariable
}

func (f *fakeVariableRepo) GetByID(_ context.Context, id int64) (*siomodels.CloudVariable, error) {
	if f.variable == nil || f.variable.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.variable, nil
}

func (f *fakeVariableRepo) UpdateValue(context.Context, int64, map[string]interface{}, time.Time) error {
	return nil
}

type fakeThingRepo struct {
	thing *siomodels.Thing
}

func (f *fakeThingRepo) GetByUUID(context.Context, string) (*siomodels.Thing, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeThingRepo) GetByID(_ context.Context, id int64) (*siomodels.Thing, error) {
	if f.thing == nil || f.thing.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.thing, nil
}

func (f *fakeThingRepo) GetByDeviceRecordID(context.Context, int64) (*siomodels.Thing, error) {
	return nil, sql.ErrNoRows
}

type fakeMailer struct {
	sent []AlertMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, mail AlertMail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, mail)
	return nil
}

func testTrigger(action siomodels.TriggerActionType, actionConfig map[string]interface{}) *siomodels.Trigger {
	fired := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &siomodels.Trigger{
		ID:              1,
		UUID:            "trigger-uuid",
		CloudVariableID: 100,
		Name:            "High temperature",
		Operator:        siomodels.OperatorGreaterThan,
		Value:           "100",
		ActionType:      action,
		ActionConfig:    actionConfig,
		LastTriggeredAt: &fired,
	}
}

func newTestExecutor(trigger *siomodels.Trigger, mailer Mailer) *Executor {
	triggers := &fakeTriggerRepo{triggers: map[int64]*siomodels.Trigger{}}
	if trigger != nil {
		triggers.triggers[trigger.ID] = trigger
	}

	variables := &fakeVariableRepo{variable: &siomodels.CloudVariable{
		ID:           100,
		ThingID:      10,
		Name:         "Temperature",
		VariableName: "temperature",
		LastValue:    map[string]interface{}{"value": 150.0},
	}}
	things := &fakeThingRepo{thing: &siomodels.Thing{ID: 10, Name: "Greenhouse"}}

	return NewExecutor(triggers, variables, things, mailer, logger.NewNopLogger())
}

func TestWebhookPostsTriggerContext(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	trigger := testTrigger(siomodels.ActionWebhook, map[string]interface{}{"url": server.URL})
	executor := newTestExecutor(trigger, &fakeMailer{})

	require.NoError(t, executor.ExecuteTrigger(context.Background(), 1))
	require.NotNil(t, received)

	triggerBlock := received["trigger"].(map[string]interface{})
	assert.Equal(t, "trigger-uuid", triggerBlock["id"])
	assert.Equal(t, "High temperature", triggerBlock["name"])

	variableBlock := received["variable"].(map[string]interface{})
	assert.Equal(t, "Temperature", variableBlock["name"])
	assert.Equal(t, map[string]interface{}{"value": 150.0}, variableBlock["value"])

	conditionBlock := received["condition"].(map[string]interface{})
	assert.Equal(t, ">", conditionBlock["operator"])
	assert.Equal(t, "100", conditionBlock["threshold"])

	assert.Equal(t, "2026-03-01T12:00:00Z", received["triggered_at"])
}

func TestWebhookErrorStatusIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	trigger := testTrigger(siomodels.ActionWebhook, map[string]interface{}{"url": server.URL})
	executor := newTestExecutor(trigger, &fakeMailer{})

	// transport-level failures bubble up so the queue retries them
	assert.Error(t, executor.ExecuteTrigger(context.Background(), 1))
}

func TestWebhookMissingURLIsNotRetried(t *testing.T) {
	trigger := testTrigger(siomodels.ActionWebhook, nil)
	executor := newTestExecutor(trigger, &fakeMailer{})

	assert.NoError(t, executor.ExecuteTrigger(context.Background(), 1))
}

func TestEmailRendersAlert(t *testing.T) {
	trigger := testTrigger(siomodels.ActionEmail, map[string]interface{}{"email": "ops@example.com"})
	mailer := &fakeMailer{}
	executor := newTestExecutor(trigger, mailer)

	require.NoError(t, executor.ExecuteTrigger(context.Background(), 1))
	require.Len(t, mailer.sent, 1)

	mail := mailer.sent[0]
	assert.Equal(t, "ops@example.com", mail.To)
	assert.Equal(t, "Trigger Alert: High temperature", mail.Subject)
	assert.Contains(t, mail.Body, "Greenhouse")
	assert.Contains(t, mail.Body, "Temperature")
	assert.Contains(t, mail.Body, "150")
	assert.Contains(t, mail.Body, "> 100")
}

func TestEmailMissingAddressIsNotRetried(t *testing.T) {
	trigger := testTrigger(siomodels.ActionEmail, nil)
	mailer := &fakeMailer{}
	executor := newTestExecutor(trigger, mailer)

	assert.NoError(t, executor.ExecuteTrigger(context.Background(), 1))
	assert.Empty(t, mailer.sent)
}

func TestVanishedTriggerIsDropped(t *testing.T) {
	executor := newTestExecutor(nil, &fakeMailer{})

	assert.NoError(t, executor.ExecuteTrigger(context.Background(), 99))
}

func TestPushNotificationIsNoOp(t *testing.T) {
	trigger := testTrigger(siomodels.ActionPushNotification, map[string]interface{}{"token": "abc"})
	mailer := &fakeMailer{}
	executor := newTestExecutor(trigger, mailer)

	assert.NoError(t, executor.ExecuteTrigger(context.Background(), 1))
	assert.Empty(t, mailer.sent)
}
