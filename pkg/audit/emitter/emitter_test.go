package emitter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/pkg/audit"
	"studygate/pkg/requestcontext"
)

type captureChannel struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (c *captureChannel) Submit(_ context.Context, event audit.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *captureChannel) all() []audit.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]audit.Event{}, c.events...)
}

func testIdentity() Identity {
	return Identity{
		SystemID:                 "STUDY_BUILDER",
		SystemIP:                 "10.0.0.12",
		ApplicationVersion:       "1.0.0",
		ApplicationComponentName: "Study builder",
	}
}

func requestCtx(correlationID string) context.Context {
	ctx := requestcontext.WithCorrelationID(context.Background(), correlationID)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "test-agent")
	ctx = requestcontext.WithTime(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return ctx
}

func TestEmit_SubmitsExactlyOneEvent(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)

	em.Emit(requestCtx("corr-42"), audit.StudyLaunched)

	events := ch.all()
	require.Len(t, events, 1)
	assert.Equal(t, "corr-42", events[0].CorrelationID, "correlation id carried unchanged")
	assert.Equal(t, audit.StudyLaunched, events[0].EventCode)
	assert.Equal(t, "STUDY_BUILDER", events[0].SystemID)
	assert.Equal(t, "203.0.113.7", events[0].ClientIP)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), events[0].OccurredAt)
	assert.NoError(t, events[0].Validate())
}

func TestEmit_SharedCorrelationIDAcrossEvents(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)
	ctx := requestCtx("corr-shared")

	em.Emit(ctx, audit.AccountRegistrationRequestReceived)
	em.Emit(ctx, audit.UserCreated, WithUserID("user-9"))

	events := ch.all()
	require.Len(t, events, 2)
	assert.Equal(t, events[0].CorrelationID, events[1].CorrelationID)
	assert.Equal(t, "user-9", events[1].UserID)
}

func TestEmit_UnknownCodeNeverSubmitted(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)

	em.Emit(requestCtx("corr-1"), audit.Code("NOT_A_CATALOG_ENTRY"))

	assert.Empty(t, ch.all())
}

func TestEmit_InvalidEventNeverSubmitted(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)

	// Missing correlation id in context makes the event invalid.
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.7", "agent")
	em.Emit(ctx, audit.StudyViewed)

	assert.Empty(t, ch.all())
}

func TestEmit_ChannelFailureDoesNotPanicOrPropagate(t *testing.T) {
	ch := &captureChannel{err: errors.New("buffer full")}
	em := New(ch, testIdentity(), nil)

	// Emit has no error return; a submit failure may only log.
	em.Emit(requestCtx("corr-1"), audit.StudyLaunched)
}

func TestEmit_CatalogDrivesAlertAndCategory(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)

	em.Emit(requestCtx("corr-a"), audit.VerificationEmailFailed)

	events := ch.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].Alert)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestEmit_DetailOverride(t *testing.T) {
	ch := &captureChannel{}
	em := New(ch, testIdentity(), nil)

	em.Emit(requestCtx("corr-d"), audit.StudyLaunched, WithDetail("Study 678574 launched"))

	events := ch.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Study 678574 launched", events[0].EventDetail)
	assert.Equal(t, "Study launched", events[0].Description)
}
