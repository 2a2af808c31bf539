// Package auditest provides the test-side verification harness for audit
// emission. Recorder is a channel.Sink: wiring it in place of the production
// sink lets handler and service tests assert which event codes were raised
// for a correlation id without a live audit sink or mocking framework.
//
// Verification is set-membership over (correlationId, eventCode): duplicate
// delivery and arbitrary arrival order are tolerated by construction.
package auditest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"studygate/pkg/audit"
)

// Recorder captures delivered events grouped by correlation id. One Recorder
// is created per test case and injected into the channel under test; Reset
// clears the buffer when a test reuses its fixture.
type Recorder struct {
	mu            sync.Mutex
	byCorrelation map[string][]audit.Event

	waitTimeout  time.Duration
	pollInterval time.Duration
	settleWindow time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithWaitTimeout bounds how long Verify waits for expected codes.
func WithWaitTimeout(d time.Duration) Option {
	return func(r *Recorder) { r.waitTimeout = d }
}

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		byCorrelation: make(map[string][]audit.Event),
		waitTimeout:   2 * time.Second,
		pollInterval:  10 * time.Millisecond,
		settleWindow:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Deliver records the event. It never fails, so the channel under test makes
// exactly one attempt per event.
func (r *Recorder) Deliver(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCorrelation[event.CorrelationID] = append(r.byCorrelation[event.CorrelationID], event)
	return nil
}

// Reset discards all captured events. Call between test cases sharing one
// recorder so no expectation leaks across tests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCorrelation = make(map[string][]audit.Event)
}

// Events returns a copy of all captured events for a correlation id.
func (r *Recorder) Events(correlationID string) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event{}, r.byCorrelation[correlationID]...)
}

// codes returns the distinct set of captured codes for a correlation id.
func (r *Recorder) codes(correlationID string) map[audit.Code]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[audit.Code]bool)
	for _, e := range r.byCorrelation[correlationID] {
		set[e.EventCode] = true
	}
	return set
}

// Verify waits up to the recorder's bounded timeout for every expected code
// to appear under the correlation id, then fails the test naming each code
// still missing. Arrival order and duplicate deliveries are irrelevant.
func (r *Recorder) Verify(t testing.TB, correlationID string, expected ...audit.Code) {
	t.Helper()
	missing := r.waitFor(correlationID, expected)
	for _, code := range missing {
		t.Errorf("expected audit event %s was not emitted for correlation id %s", code, correlationID)
	}
}

// VerifyWithEvents behaves like Verify and additionally compares the non-zero
// fields of each expected prototype against a received event with the same
// code, failing with the field name and expected/actual values on mismatch.
func (r *Recorder) VerifyWithEvents(t testing.TB, correlationID string, prototypes map[audit.Code]audit.Event, expected ...audit.Code) {
	t.Helper()
	missing := r.waitFor(correlationID, expected)
	for _, code := range missing {
		t.Errorf("expected audit event %s was not emitted for correlation id %s", code, correlationID)
	}
	if len(missing) > 0 {
		return
	}

	received := r.Events(correlationID)
	for code, proto := range prototypes {
		match, ok := firstWithCode(received, code)
		if !ok {
			// Prototype for a code the caller did not list in expected;
			// treat as an expectation in its own right.
			t.Errorf("expected audit event %s was not emitted for correlation id %s", code, correlationID)
			continue
		}
		for _, mismatch := range diffFields(proto, match) {
			t.Errorf("audit event %s received, but %s", code, mismatch)
		}
	}
}

// VerifyAbsent asserts the code was never submitted for the correlation id.
// It waits a short settle window first so in-flight asynchronous deliveries
// are not missed.
func (r *Recorder) VerifyAbsent(t testing.TB, correlationID string, code audit.Code) {
	t.Helper()
	time.Sleep(r.settleWindow)
	if r.codes(correlationID)[code] {
		t.Errorf("audit event %s must not be emitted for correlation id %s, but was", code, correlationID)
	}
}

// waitFor polls until all expected codes arrived or the timeout elapsed,
// returning the codes still missing.
func (r *Recorder) waitFor(correlationID string, expected []audit.Code) []audit.Code {
	deadline := time.Now().Add(r.waitTimeout)
	for {
		missing := r.missing(correlationID, expected)
		if len(missing) == 0 || time.Now().After(deadline) {
			return missing
		}
		time.Sleep(r.pollInterval)
	}
}

func (r *Recorder) missing(correlationID string, expected []audit.Code) []audit.Code {
	present := r.codes(correlationID)
	var missing []audit.Code
	for _, code := range expected {
		if !present[code] {
			missing = append(missing, code)
		}
	}
	return missing
}

func firstWithCode(events []audit.Event, code audit.Code) (audit.Event, bool) {
	for _, e := range events {
		if e.EventCode == code {
			return e, true
		}
	}
	return audit.Event{}, false
}

// diffFields compares the non-zero fields of the prototype against the
// received event, reporting one message per mismatch.
func diffFields(proto, got audit.Event) []string {
	type field struct {
		name     string
		expected string
		actual   string
	}
	fields := []field{
		{"actorUserId", proto.UserID, got.UserID},
		{"appId", proto.AppID, got.AppID},
		{"clientId", proto.ClientID, got.ClientID},
		{"systemId", proto.SystemID, got.SystemID},
		{"clientIp", proto.ClientIP, got.ClientIP},
		{"deviceType", proto.DeviceType, got.DeviceType},
		{"devicePlatform", proto.DevicePlatform, got.DevicePlatform},
		{"requestUri", proto.RequestURI, got.RequestURI},
		{"applicationVersion", proto.ApplicationVersion, got.ApplicationVersion},
		{"applicationComponentName", proto.ApplicationComponentName, got.ApplicationComponentName},
		{"description", proto.Description, got.Description},
		{"eventDetail", proto.EventDetail, got.EventDetail},
	}

	var mismatches []string
	for _, f := range fields {
		if f.expected == "" {
			continue
		}
		if f.expected != f.actual {
			mismatches = append(mismatches,
				fmt.Sprintf("field %s mismatch: expected %q, actual %q", f.name, f.expected, f.actual))
		}
	}
	return mismatches
}
