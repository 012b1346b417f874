package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"couponhub/internal/config"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(config.SMTPConfig{}, zap.NewNop())
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m = New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "noreply@example.com"}, zap.NewNop())
	smtp, ok := m.(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "noreply@example.com", smtp.from)
}

func TestLogMailerLogsResetLink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.SendPasswordReset(context.Background(), "admin@example.com", "http://localhost/reset/abc", 10*time.Minute)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "admin@example.com", fields["to"])
	assert.Equal(t, "http://localhost/reset/abc", fields["reset_url"])
	assert.Equal(t, 10*time.Minute, fields["expires_in"])
}

func TestResetBodiesContainLink(t *testing.T) {
	assert.Contains(t, resetText("http://x/reset/t", 10*time.Minute), "http://x/reset/t")
	assert.Contains(t, resetHTML("http://x/reset/t", 10*time.Minute), `href="http://x/reset/t"`)
}

func TestResetBodiesUseConfiguredExpiry(t *testing.T) {
	assert.Contains(t, resetText("http://x/reset/t", 30*time.Minute), "within 30 minutes")
	assert.Contains(t, resetHTML("http://x/reset/t", time.Hour), "expires in 1 hour.")
	assert.NotContains(t, resetText("http://x/reset/t", 2*time.Hour), "10 minutes")

	cases := map[time.Duration]string{
		time.Minute:      "1 minute",
		10 * time.Minute: "10 minutes",
		2 * time.Hour:    "2 hours",
		90 * time.Second: "1m30s",
	}
	for d, want := range cases {
		assert.Equal(t, want, humanDuration(d), d.String())
	}
}
