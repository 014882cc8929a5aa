package logger

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface shared by every service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a single structured log field.
type Field struct {
	zap.Field
}

type traceIDKey struct{}

// LoggerImpl is the zap-backed Logger.
type LoggerImpl struct {
	zapLogger *zap.Logger
}

// NewLogger builds a logger for the given environment.
//
// environment "dev" produces colored console output, anything else produces JSON.
// level is one of debug, info, warn, error; unknown values fall back to info.
func NewLogger(environment, level, serviceName string) (Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zapLevel = zap.InfoLevel
	}

	var encoder zapcore.Encoder
	if environment == "dev" {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "time"
		encoderConfig.MessageKey = "msg"
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(zapLevel))
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel)).With(
		zap.String("service", serviceName),
		zap.String("environment", environment),
	)

	return &LoggerImpl{zapLogger: zapLogger}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) Logger {
	return &LoggerImpl{zapLogger: z}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &LoggerImpl{zapLogger: zap.NewNop()}
}

func toZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = field.Field
	}
	return zapFields
}

func (l *LoggerImpl) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, toZap(fields)...)
}

func (l *LoggerImpl) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZap(fields)...)
}

func (l *LoggerImpl) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZap(fields)...)
}

func (l *LoggerImpl) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZap(fields)...)
}

// With returns a child logger carrying the given fields.
func (l *LoggerImpl) With(fields ...Field) Logger {
	return &LoggerImpl{zapLogger: l.zapLogger.With(toZap(fields)...)}
}

func (l *LoggerImpl) Sync() error {
	return l.zapLogger.Sync()
}

// WithTraceID stores a request trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace id stored by WithTraceID.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// CtxField returns the trace_id field for the request in ctx.
func CtxField(ctx context.Context) Field {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return String("trace_id", traceID)
	}
	return String("trace_id", "unknown")
}

func String(key, val string) Field {
	return Field{zap.String(key, val)}
}

func Int(key string, val int) Field {
	return Field{zap.Int(key, val)}
}

func Int64(key string, val int64) Field {
	return Field{zap.Int64(key, val)}
}

func Float64(key string, val float64) Field {
	return Field{zap.Float64(key, val)}
}

func Bool(key string, val bool) Field {
	return Field{zap.Bool(key, val)}
}

func Duration(key string, val time.Duration) Field {
	return Field{zap.Duration(key, val)}
}

// Error creates an "error" field; a nil error is logged as "nil".
func Error(err error) Field {
	if err == nil {
		return Field{zap.String("error", "nil")}
	}
	return Field{zap.String("error", err.Error())}
}

func Any(key string, val interface{}) Field {
	return Field{zap.Any(key, val)}
}
