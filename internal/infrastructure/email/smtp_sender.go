package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/devstudio/site-api/internal/application/mail"
)

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

// Send delivers m over SMTP. Every failure is a *DeliveryError.
func (s *SMTPSender) Send(ctx context.Context, m mail.Message) error {
	if err := m.Validate(); err != nil {
		return permanent("validate", err)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg, err := s.buildMsg(m)
	if err != nil {
		return err
	}

	c, err := gomail.NewClient(s.host, s.clientOptions()...)
	if err != nil {
		return permanent("client", err)
	}

	s.lg.Debug().Str("host", s.host).Int("port", s.port).Str("kind", m.Kind).Msg("attempting smtp send")
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		s.lg.Error().Err(err).Str("kind", m.Kind).Msg("smtp send failed")
		return classifySMTPError(err)
	}

	s.lg.Info().Str("kind", m.Kind).Msg("smtp send ok")
	return nil
}

func (s *SMTPSender) buildMsg(m mail.Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, permanent("from", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, permanent("to", err)
	}
	msg.Subject(m.Subject)

	// Text fallback + HTML alternative
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	tlsPolicy := gomail.TLSMandatory
	if s.insecure {
		tlsPolicy = gomail.TLSOpportunistic
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, gomail.WithSMTPAuth(gomail.SMTPAuthPlain), gomail.WithUsername(s.user), gomail.WithPassword(s.pass))
	}
	return opts
}
