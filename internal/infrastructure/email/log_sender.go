package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/application/mail"
)

// LogSender writes messages to the log instead of sending them (MAIL_TRANSPORT=log).
//
// FailMode simulates delivery problems in development:
// - "" or "none": always succeed
// - "transient": fail with a retriable DeliveryError
// - "permanent": fail with a permanent DeliveryError
type LogSender struct {
	lg       zerolog.Logger
	failMode string
}

func NewLogSender(lg zerolog.Logger, failMode string) *LogSender {
	return &LogSender{
		lg:       lg.With().Str("component", "log_sender").Logger(),
		failMode: strings.TrimSpace(strings.ToLower(failMode)),
	}
}

func (s *LogSender) Send(ctx context.Context, m mail.Message) error {
	if err := m.Validate(); err != nil {
		return permanent("validate", err)
	}

	s.lg.Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("kind", m.Kind).
		Str("text", m.Text).
		Msg("FAKE send email")

	switch s.failMode {
	case "transient":
		return transient("log", fmt.Errorf("simulated transient failure (%s)", m.Kind))
	case "permanent":
		return permanent("log", fmt.Errorf("simulated permanent failure (%s)", m.Kind))
	default:
		return nil
	}
}
