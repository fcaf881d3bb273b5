package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCtx "github.com/devstudio/site-api/internal/pkg/context"
)

func TestMaskEmail(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"ann@example.com": "an***@example.com",
		"a@example.com":   "a***@example.com",
		"abc":             "***",
		"not-an-email":    "n***",
	}
	for in, want := range cases {
		assert.Equal(t, want, maskEmail(in), in)
	}
}

func TestRecord_MasksAndEnriches(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	ctx := appCtx.WithClientIP(appCtx.WithRequestID(context.Background(), "req-9"), "10.1.2.3")
	l.Record(ctx, "auth.signup", map[string]string{"user_id": "u1", "email": "ann@example.com", "to_email": "bob@example.com"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, true, line["audit"])
	assert.Equal(t, "auth.signup", line["action"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "an***@example.com", line["email"])
	assert.Equal(t, "bo***@example.com", line["to_email"])
	assert.Equal(t, "req-9", line["request_id"])
	assert.Equal(t, "10.1.2.3", line["ip"])
	assert.Equal(t, "info", line["level"])
}

func TestRecord_WarnActions(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New(zerolog.New(&buf)).Record(context.Background(), "admin.reply", nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.NotContains(t, line, "request_id")
}
