package sioactions

import (
	"context"
	"fmt"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

// webhookBody is the JSON payload POSTed to the configured URL
type webhookBody struct {
	Trigger     webhookTrigger   `json:"trigger"`
	Variable    webhookVariable  `json:"variable"`
	Condition   webhookCondition `json:"condition"`
	TriggeredAt *string          `json:"triggered_at"`
}

type webhookTrigger struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type webhookVariable struct {
	Name  string                 `json:"name"`
	Value map[string]interface{} `json:"value"`
}

type webhookCondition struct {
	Operator  string `json:"operator"`
	Threshold string `json:"threshold"`
}

// fireWebhook POSTs the trigger context to the configured URL with a bounded
// timeout. A missing URL is a config error and is not retried; a failed POST
// is, by the queue.
func (e *Executor) fireWebhook(ctx context.Context, trigger *siomodels.Trigger) error {
	url := trigger.ConfigString("url")
	if url == "" {
		e.logger.Logger.Error().Int64("trigger_id", trigger.ID).Msg("Trigger webhook action missing URL")
		return nil
	}

	variable, _, err := e.loadContext(ctx, trigger)
	if err != nil {
		return err
	}

	var triggeredAt *string
	if trigger.LastTriggeredAt != nil {
		iso := trigger.LastTriggeredAt.Format(time.RFC3339)
		triggeredAt = &iso
	}

	body := webhookBody{
		Trigger:   webhookTrigger{ID: trigger.UUID, Name: trigger.Name},
		Variable:  webhookVariable{Name: variable.Name, Value: variable.LastValue},
		Condition: webhookCondition{Operator: trigger.Operator.Symbol(), Threshold: trigger.Value},
		TriggeredAt: triggeredAt,
	}

	resp, err := e.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("webhook POST failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook POST returned status %d", resp.StatusCode())
	}

	return nil
}
