package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Notifier delivers one change description somewhere observable.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, text string) error
}

// DeliveryError is a failed delivery of a single message.
type DeliveryError struct {
	Notifier string
	Text     string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery of %q failed: %s", e.Notifier, e.Text, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Log writes every message to the standard logger, handy for dry runs.
type Log struct {
	Logger *log.Logger
}

func (l *Log) Name() string {
	return "Log"
}

func (l *Log) Verify(ctx context.Context) error {
	return nil
}

func (l *Log) Notify(ctx context.Context, text string) error {
	if l.Logger != nil {
		l.Logger.Println(text)
	} else {
		log.Printf("[notify] %s", text)
	}
	return nil
}

// Multi fans each message out to several notifiers, in order.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, "+")
}

// Verify checks every notifier that can be checked.
func (m Multi) Verify(ctx context.Context) error {
	for _, n := range m {
		if v, ok := n.(interface{ Verify(context.Context) error }); ok {
			if err := v.Verify(ctx); err != nil {
				return fmt.Errorf("%s: %w", n.Name(), err)
			}
		}
	}
	return nil
}

// Notify tries every notifier even when an earlier one fails and returns
// the first failure.
func (m Multi) Notify(ctx context.Context, text string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil && first == nil {
			first = err
		}
	}
	return first
}
