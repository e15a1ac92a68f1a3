// Package notifytest provides a recording Notifier for tests.
package notifytest

import (
	"context"
	"sync"

	"wedding-rsvp/internal/notify"
)

// Recorder records every confirmation it is asked to send.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Confirmation
	fail error
}

// NewRecorder creates a recorder that succeeds.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every later Notify call record the attempt and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Notify implements notify.Notifier.
func (r *Recorder) Notify(_ context.Context, c notify.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, c)
	return r.fail
}

// Sent returns a copy of the recorded attempts.
func (r *Recorder) Sent() []notify.Confirmation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Confirmation(nil), r.sent...)
}
