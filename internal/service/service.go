package service

import (
	"context"
	"time"

	"github.com/spec-kit/team-task-service/internal/events"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Nullable distinguishes an absent field from an explicit null in partial updates.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns an explicitly null value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Some returns a set, non-null value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// publishEvent is best-effort; a nil dispatcher drops the event.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
