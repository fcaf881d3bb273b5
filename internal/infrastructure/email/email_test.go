package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devstudio/site-api/internal/application/mail"
)

func TestClassifySMTPError(t *testing.T) {
	cases := []struct {
		err       error
		permanent bool
	}{
		{errors.New("535 5.7.8 Username and Password not accepted"), true},
		{errors.New("550 5.1.1 mailbox unavailable"), true},
		{errors.New("dial tcp 10.0.0.5:587: i/o timeout"), false},
		{errors.New("421 4.7.0 try again later"), false},
	}
	for _, tc := range cases {
		got := classifySMTPError(tc.err)

		var de *DeliveryError
		require.ErrorAs(t, got, &de)
		assert.Equal(t, tc.permanent, de.Permanent(), "%v", tc.err)
		assert.Equal(t, tc.permanent, IsPermanent(got))
		assert.ErrorIs(t, got, tc.err)
	}
}

func TestIsPermanent_WrappedAndForeign(t *testing.T) {
	wrapped := fmt.Errorf("deliver m-1: %w", permanent("to", errors.New("bad address")))
	assert.True(t, IsPermanent(wrapped))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.Equal(t, "email to: bad address", errors.Unwrap(wrapped).Error())
}

func TestSMTPSender_Config(t *testing.T) {
	cfg := SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "password",
		From:     "noreply@studio.dev",
		Timeout:  5 * time.Second,
	}

	sender := NewSMTPSender(cfg, zerolog.Nop())

	assert.Equal(t, "smtp.example.com", sender.host)
	assert.Equal(t, 587, sender.port)
	assert.Equal(t, 5*time.Second, sender.timeout)
	assert.Len(t, sender.clientOptions(), 5)
}

func TestSMTPSender_BuildMsg(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{From: "noreply@studio.dev"}, zerolog.Nop())

	msg, err := sender.buildMsg(mail.VerificationEmail("ada@x.com", "Ada", "https://studio.dev/verify/abc"))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: Verify your new account")
	assert.Contains(t, out, "text/html")
}

func TestSMTPSender_InvalidAddresses_ArePermanent(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{From: "not an address"}, zerolog.Nop())

	err := sender.Send(context.Background(), mail.Message{To: "a@x.com", Subject: "s", Text: "t"})
	assert.True(t, IsPermanent(err), "got %v", err)

	err = sender.Send(context.Background(), mail.Message{Subject: "s"})
	assert.True(t, IsPermanent(err), "empty recipient: got %v", err)
}

func TestLogSender_LogsAndSimulatesFailures(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)

	m := mail.Message{To: "a@x.com", Subject: "Hi", Text: "body", Kind: mail.KindAdminReply}

	require.NoError(t, NewLogSender(lg, "").Send(context.Background(), m))
	assert.True(t, strings.Contains(buf.String(), `"kind":"admin_reply"`))

	err := NewLogSender(lg, "Transient").Send(context.Background(), m)
	require.Error(t, err)
	assert.False(t, IsPermanent(err))

	assert.True(t, IsPermanent(NewLogSender(lg, "permanent").Send(context.Background(), m)))
}
