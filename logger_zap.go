package authstate

import "go.uber.org/zap"

// ZapLogger adapts a zap SugaredLogger to the Logger interface.
type ZapLogger struct {
	l *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps the given zap logger; nil gets a production logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l, _ = zap.NewProduction()
	}
	return &ZapLogger{l: l.Sugar()}
}

func (z *ZapLogger) Debug(format string, args ...any) {
	z.l.Debugf(format, args...)
}

func (z *ZapLogger) Info(format string, args ...any) {
	z.l.Infof(format, args...)
}

func (z *ZapLogger) Warn(format string, args ...any) {
	z.l.Warnf(format, args...)
}

func (z *ZapLogger) Error(format string, args ...any) {
	z.l.Errorf(format, args...)
}
