package observe

import (
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampLayout = "2006-01-02T15-04-05.000"

// Logger is a thin field-map wrapper around zap used by every package.
type Logger struct {
	appEnv  string
	appName string
	l       *zap.Logger
}

// NewZapLogger builds a JSON logger writing to all given writers (stdout when none).
// An unknown level falls back to info.
func NewZapLogger(appName, appEnv, level string, writers ...io.Writer) *Logger {
	var multiWriters []zapcore.WriteSyncer

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = timeEncoder(timestampLayout, time.UTC)
	cfg.TimeKey = "timestamp"

	if len(writers) == 0 {
		multiWriters = append(multiWriters, os.Stdout)
	} else {
		for _, writer := range writers {
			multiWriters = append(multiWriters, zapcore.AddSync(writer))
		}
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.NewMultiWriteSyncer(multiWriters...),
		lvl,
	)

	return &Logger{
		appEnv:  appEnv,
		appName: appName,
		l:       zap.New(core),
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{l: zap.NewNop()}
}

func (l *Logger) Stop() error {
	return l.l.Sync()
}

func (l *Logger) Error(err error, fields ...map[string]any) {
	file, line, funcName := getRuntimeParams()
	l.l.WithOptions(zap.Fields(firstFields(fields)...)).Error(
		err.Error(),
		zap.String("app_env", l.appEnv),
		zap.String("app_name", l.appName),
		zap.String("error", err.Error()),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
		zap.Stack("stack"),
	)
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.l.WithOptions(zap.Fields(firstFields(fields)...)).Info(msg, l.meta()...)
}

func (l *Logger) Warning(msg string, fields ...map[string]any) {
	l.l.WithOptions(zap.Fields(firstFields(fields)...)).Warn(msg, l.meta()...)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.l.WithOptions(zap.Fields(firstFields(fields)...)).Debug(msg, l.meta()...)
}

func (l *Logger) Fatal(msg string, fields ...map[string]any) {
	l.l.WithOptions(zap.Fields(firstFields(fields)...)).Fatal(msg, l.meta()...)
}

// meta must be called directly from a level method so the caller skip stays right.
func (l *Logger) meta() []zap.Field {
	file, line, funcName := getRuntimeParamsSkip(3)
	return []zap.Field{
		zap.String("app_env", l.appEnv),
		zap.String("app_name", l.appName),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
	}
}

func firstFields(fields []map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	return mapToZapFields(fields[0])
}

func mapToZapFields(data map[string]any) []zap.Field {
	zapFields := make([]zap.Field, 0, len(data))

	for k, v := range data {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return zapFields
}

func getRuntimeParams() (file string, line int, funcName string) {
	return getRuntimeParamsSkip(3)
}

func getRuntimeParamsSkip(skip int) (file string, line int, funcName string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "not_defined", 0, "not_defined"
	}
	return file, line, runtime.FuncForPC(pc).Name()
}

func timeEncoder(layout string, location *time.Location) func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		t = t.In(location)
		type appendTimeEncoder interface {
			AppendTimeLayout(time.Time, string)
		}
		if enc, ok := enc.(appendTimeEncoder); ok {
			enc.AppendTimeLayout(t, layout)
			return
		}
		enc.AppendString(t.Format(layout))
	}
}
