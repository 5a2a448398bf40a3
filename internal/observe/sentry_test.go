package observe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentryHook_DisabledWithoutDSN(t *testing.T) {
	h := NewSentryHook("test", "bandweather", "", false)

	var captured int
	h.capture = func(*sentry.Event) { captured++ }

	n, err := h.Write([]byte(`{"level":"error","msg":"boom"}`))
	require.NoError(t, err)
	assert.Equal(t, len(`{"level":"error","msg":"boom"}`), n)
	assert.Zero(t, captured)
}

func TestSentryHook_ForwardsOnlyErrors(t *testing.T) {
	h := &SentryHook{appEnv: "test", appName: "bandweather", enabled: true}

	var events []*sentry.Event
	h.capture = func(e *sentry.Event) { events = append(events, e) }

	var buf bytes.Buffer
	l := NewZapLogger("bandweather", "test", "debug", &buf, h)
	h.SetLogger(l)

	l.Info("sync started")
	l.Warning("connect retry")
	l.Error(errors.New("forecast unavailable"), map[string]any{"attempt": 1})

	require.Len(t, events, 1)
	assert.Equal(t, "forecast unavailable", events[0].Message)
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, "bandweather", events[0].Extra["AppName"])
	assert.Contains(t, buf.String(), "sync started")
}

func TestSentryHook_IgnoresGarbage(t *testing.T) {
	h := &SentryHook{enabled: true, l: NewNop()}
	h.capture = func(*sentry.Event) { t.Fatal("unexpected capture") }

	n, err := h.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, len("not json"), n)
}
