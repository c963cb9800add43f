package sioactions

import (
	"context"
	"fmt"
	"time"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	gomail "gopkg.in/gomail.v2"
)

// AlertMail is the rendered trigger notification
type AlertMail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers alert mail. The SMTP implementation is swapped for a fake
// in tests.
type Mailer interface {
	Send(ctx context.Context, mail AlertMail) error
}

// SMTPMailer delivers alert mail over SMTP
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(_ context.Context, mail AlertMail) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/plain", mail.Body)

	return m.dialer.DialAndSend(msg)
}

// sendEmail renders and delivers the trigger alert. A missing email address
// is a config error and is not retried.
func (e *Executor) sendEmail(ctx context.Context, trigger *siomodels.Trigger) error {
	email := trigger.ConfigString("email")
	if email == "" {
		e.logger.Logger.Error().Int64("trigger_id", trigger.ID).Msg("Trigger email action missing email address")
		return nil
	}

	variable, thing, err := e.loadContext(ctx, trigger)
	if err != nil {
		return err
	}

	currentValue := "N/A"
	if scalar, ok := variable.CurrentScalar(); ok {
		currentValue = fmt.Sprint(scalar)
	}

	triggeredAt := time.Now().Format("2006-01-02 15:04:05")
	if trigger.LastTriggeredAt != nil {
		triggeredAt = trigger.LastTriggeredAt.Format("2006-01-02 15:04:05")
	}

	mail := AlertMail{
		To:      email,
		Subject: "Trigger Alert: " + trigger.Name,
		Body: fmt.Sprintf(
			"Trigger %q fired on thing %q.\n\nVariable: %s\nCurrent value: %s\nCondition: %s %s\nTriggered at: %s\n",
			trigger.Name, thing.Name, variable.Name, currentValue,
			trigger.Operator.Symbol(), trigger.Value, triggeredAt,
		),
	}

	return e.mailer.Send(ctx, mail)
}
