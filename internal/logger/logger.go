// Package logger provides the context-scoped structured logger used
// throughout the backend, backed by logrus.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

// WithFields attaches request-scoped fields (tenant id, session id, review
// id, request id) to a context, returning a context whose GetLogger carries
// them on every subsequent line.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	entry := entryFrom(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// CloneContext detaches the logger entry from ctx's cancellation so a
// goroutine started from ctx can keep logging after ctx is done (mirrors the
// lifetime mismatch between an SSE request context and its background
// worker).
func CloneContext(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, entryFrom(ctx))
}

func entryFrom(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(base)
}

// GetLogger returns the context's logger, or the package-level root logger
// entry if none was attached.
func GetLogger(ctx context.Context) *logrus.Entry { return entryFrom(ctx) }

// Info, Warn, and Error (and their -f variants) all take ctx first so every
// call site picks up whatever request-scoped fields WithFields attached,
// matching the pipeline helpers in internal/common.
func Info(ctx context.Context, args ...any)  { entryFrom(ctx).Info(args...) }
func Warn(ctx context.Context, args ...any)  { entryFrom(ctx).Warn(args...) }
func Error(ctx context.Context, args ...any) { entryFrom(ctx).Error(args...) }

func Infof(ctx context.Context, format string, args ...any) {
	entryFrom(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	entryFrom(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	entryFrom(ctx).Errorf(format, args...)
}

// Debugf logs at debug level using ctx's attached fields, for the rare
// call site that wants to log a request/response body without promoting it
// to info.
func Debugf(ctx context.Context, format string, args ...any) {
	entryFrom(ctx).Debugf(format, args...)
}

// ErrorWithFields logs err at error level with structured fields attached,
// the conventional shape for component failures that must stay greppable.
func ErrorWithFields(ctx context.Context, err error, fields logrus.Fields) {
	entryFrom(ctx).WithFields(fields).WithError(err).Error("operation failed")
}
