// Package notify delivers alerts to external destinations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"penny_watch/internal/model"
)

// Sink delivers an alert to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert model.Alert, from model.Identity) error
}

// DeliveryError is returned when a sink fails to deliver an alert.
// Status is the HTTP status code when the destination answered, else 0.
type DeliveryError struct {
	Sink   string
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s delivery failed with status %d: %v", e.Sink, e.Status, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError reports whether err wraps a DeliveryError.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

// Fanout sends each alert to every registered sink, once, with no retry.
type Fanout struct {
	sinks []Sink
	log   *slog.Logger
}

// NewFanout creates a Fanout over sinks.
func NewFanout(log *slog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

// Register adds a sink.
func (f *Fanout) Register(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Send delivers alert to all sinks and joins their errors.
func (f *Fanout) Send(ctx context.Context, alert model.Alert, from model.Identity) error {
	if len(f.sinks) == 0 {
		return errors.New("no alert sinks registered")
	}
	var errs []error
	for _, s := range f.sinks {
		if err := s.Send(ctx, alert, from); err != nil {
			errs = append(errs, err)
			continue
		}
		f.log.Debug("alert delivered", "sink", s.Name(), "alert_id", alert.ID)
	}
	return errors.Join(errs...)
}
