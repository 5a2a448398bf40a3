package observe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	_sentryMaxErrorDepth        int           = 9
	_sentryFlushTimeout         time.Duration = 5 * time.Second
	_sentryServerRequestTimeout time.Duration = 5 * time.Second
)

// SentryHook is an io.Writer fed with the logger's JSON lines. Error level
// entries and above are forwarded to Sentry, the rest are dropped.
type SentryHook struct {
	appEnv  string
	appName string
	enabled bool
	capture func(*sentry.Event)
	l       *Logger
}

// NewSentryHook initialises the Sentry client. With an empty DSN the hook
// stays disabled and Write is a no-op.
func NewSentryHook(appEnv, appName, dsn string, isDebug bool) *SentryHook {
	h := &SentryHook{
		appEnv:  appEnv,
		appName: appName,
		capture: func(e *sentry.Event) { sentry.CaptureEvent(e) },
	}
	if dsn == "" {
		return h
	}

	sentryTransport := sentry.NewHTTPTransport()
	sentryTransport.Timeout = _sentryServerRequestTimeout
	if err := sentry.Init(sentry.ClientOptions{
		AttachStacktrace: true,
		Debug:            isDebug,
		Dsn:              dsn,
		Environment:      appEnv,
		MaxErrorDepth:    _sentryMaxErrorDepth,
		ServerName:       appName,
		Transport:        sentryTransport,
	}); err != nil {
		log.Println("sentry init error: ", err.Error())
		return h
	}

	h.enabled = true
	return h
}

func (*SentryHook) mapLevel(zl zapcore.Level) sentry.Level {
	switch zl {
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return sentry.LevelFatal
	}
	return sentry.LevelDebug
}

func (h *SentryHook) Write(p []byte) (n int, err error) {
	if !h.enabled {
		return len(p), nil
	}

	type entry struct {
		Level      string `json:"level"`
		CallerFile string `json:"caller_file"`
		CallerLine int    `json:"caller_line"`
		CallerFunc string `json:"caller_func"`
		Stack      string `json:"stack"`
		Message    string `json:"msg"`
		Error      string `json:"error"`
		Timestamp  string `json:"timestamp"`
	}

	var t entry
	if err := json.Unmarshal(p, &t); err != nil {
		h.report(errors.Wrap(err, "[SentryHook] unmarshal log entry"))
		return len(p), nil
	}

	level, err := zapcore.ParseLevel(t.Level)
	if err != nil {
		h.report(errors.Wrap(err, "[SentryHook] parse zap level"))
		return len(p), nil
	}
	if level < zapcore.ErrorLevel || t.Message == "" {
		return len(p), nil
	}

	timestamp, _ := time.ParseInLocation(timestampLayout, t.Timestamp, time.UTC)

	event := sentry.NewEvent()
	event.Environment = h.appEnv
	event.Level = h.mapLevel(level)
	event.Timestamp = timestamp
	event.Message = t.Message
	event.Extra["AppName"] = h.appName
	event.Extra["Error"] = t.Error
	event.Extra["CallerFile"] = t.CallerFile
	event.Extra["CallerLine"] = t.CallerLine
	event.Extra["CallerFunc"] = t.CallerFunc
	event.Extra["Stack"] = t.Stack
	event.Exception = append(event.Exception, sentry.Exception{
		Type:  t.Message,
		Value: t.Error,
	})
	h.capture(event)

	return len(p), nil
}

// Flush waits for buffered events to be delivered.
func (h *SentryHook) Flush() {
	if h.enabled {
		sentry.Flush(_sentryFlushTimeout)
	}
}

func (h *SentryHook) SetLogger(logger *Logger) {
	if logger != nil {
		h.l = logger
	}
}

func (h *SentryHook) report(err error) {
	// Warning level so the entry is not fed back into the hook.
	if h.l != nil {
		h.l.Warning(err.Error())
		return
	}
	log.Println(err.Error())
}
