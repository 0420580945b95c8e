package authstate

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Store is the adapter contract shared by PrimaryStore and AlternativeStore.
// Implementations never propagate raw backend errors; failures come back as
// the sentinel kinds declared in errors.go.
type Store interface {
	Initialize(ctx context.Context) bool
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) (SetOutcome, error)
	RemoveItem(ctx context.Context, key string) bool
	Clear(ctx context.Context) bool
	GetDiagnostics() StoreDiagnostics
}

// TokenStore is the subset of Store the session layer needs.
type TokenStore interface {
	Initialize(ctx context.Context) bool
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) (SetOutcome, error)
	RemoveItem(ctx context.Context, key string) bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHSTATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHSTATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHSTATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHSTATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
