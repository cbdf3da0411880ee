// Package notify composes alert messages and delivers them to chat sinks.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrDispatchFailed is returned when a sink rejects or cannot receive a message.
var ErrDispatchFailed = errors.New("notification dispatch failed")

// Notifier delivers one composed, transport-escaped message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// ErrNoSinks is returned by a Multi without any configured sink, so the
// message is reported as undelivered.
var ErrNoSinks = fmt.Errorf("%w: no sink configured", ErrDispatchFailed)

// Multi fans a message out to every sink and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var (
		err  error
		sent int
	)
	for _, n := range m {
		if n == nil {
			continue
		}
		sent++
		err = multierr.Append(err, n.Send(ctx, text))
	}
	if sent == 0 {
		return ErrNoSinks
	}
	return err
}
