package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is an immutable set of fields over a shared logrus logger. The
// With* methods return a copy.
type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

type Config struct {
	Level      LogLevel
	Format     string // json or text
	Output     string // stdout, stderr or a file path
	TimeFormat string
	Caller     bool
	Colors     bool
	AppName    string
	Version    string
}

func NewLogger(config *Config) (*Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if config.Format == "json" {
		l.SetFormatter(&JSONFormatter{
			TimestampFormat: config.TimeFormat,
			AppName:         config.AppName,
			Version:         config.Version,
		})
	} else {
		l.SetFormatter(&TextFormatter{
			TimestampFormat: config.TimeFormat,
			Colors:          config.Colors,
			AppName:         config.AppName,
		})
	}

	switch config.Output {
	case "stderr":
		l.SetOutput(os.Stderr)
	case "stdout", "":
		l.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, err
		}
		l.SetOutput(file)
	}

	l.SetReportCaller(config.Caller)
	l.AddHook(redactHook{})

	return &Logger{logger: l, fields: logrus.Fields{}}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{logger: l, fields: logrus.Fields{}}
}

func (l *Logger) with(extra map[string]interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &Logger{logger: l.logger, fields: fields}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(map[string]interface{}{key: value})
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(fields)
}

func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := map[string]interface{}{}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		fields["request_id"] = requestID
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		fields["user_id"] = userID
	}
	return l.with(fields)
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) WithBookingID(bookingID string) *Logger {
	return l.WithField("booking_id", bookingID)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.WithField("request_id", requestID)
}

func (l *Logger) entry() *logrus.Entry {
	return l.logger.WithFields(l.fields)
}

func (l *Logger) Debug(msg string) { l.entry().Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry().Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry().Warn(msg) }
func (l *Logger) Error(msg string) { l.entry().Error(msg) }
func (l *Logger) Fatal(msg string) { l.entry().Fatal(msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// LogPaymentEvent records a change to one payment record. amount is the
// booking's paid amount after the change, already formatted.
func (l *Logger) LogPaymentEvent(bookingID, paymentID, event, method, amount string) {
	l.WithFields(map[string]interface{}{
		"booking_id":     bookingID,
		"payment_id":     paymentID,
		"event":          event,
		"payment_method": method,
		"amount":         amount,
		"type":           "payment_event",
	}).Info("Payment event occurred")
}

func (l *Logger) LogWebhookEvent(gateway, outcome string, details map[string]interface{}) {
	l.WithFields(details).WithFields(map[string]interface{}{
		"gateway": gateway,
		"outcome": outcome,
		"type":    "webhook_event",
	}).Info("Webhook processed")
}

func (l *Logger) LogAPIRequest(method, endpoint string, statusCode int, duration time.Duration, userID string) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"type":        "api_request",
	}
	if userID != "" {
		fields["user_id"] = userID
	}

	log := l.WithFields(fields)
	switch {
	case statusCode >= 500:
		log.Error("API request failed")
	case statusCode >= 400:
		log.Warn("API request rejected")
	default:
		log.Info("API request processed")
	}
}

// LogSecurityEvent logs at error level for high and critical severities.
func (l *Logger) LogSecurityEvent(eventType, severity string, details map[string]interface{}) {
	log := l.WithFields(details).WithFields(map[string]interface{}{
		"event_type": eventType,
		"severity":   severity,
		"type":       "security_event",
	})
	if severity == "high" || severity == "critical" {
		log.Error("Security event detected")
		return
	}
	log.Warn("Security event detected")
}

func (l *Logger) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}
