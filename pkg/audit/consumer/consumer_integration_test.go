//go:build integration

package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/internal/platform/kafka"
	"studygate/internal/platform/kafka/consumer"
	"studygate/pkg/audit"
	"studygate/pkg/audit/sink/kafkasink"
	"studygate/pkg/audit/store/memory"
	"studygate/pkg/testutil/containers"
)

// TestPipeline_DeliversEventsThroughKafka exercises the full delivery path:
// sink publishes to the broker, the consumer group picks the record up, the
// handler materializes it into the store.
func TestPipeline_DeliversEventsThroughKafka(t *testing.T) {
	rc := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const topic = "audit.events.test"

	producer, err := kafka.NewProducer(rc.Brokers)
	require.NoError(t, err)
	t.Cleanup(producer.Close)
	require.NoError(t, producer.EnsureTopic(context.Background(), topic, 1, 1))

	store := memory.NewInMemoryStore()
	c, err := consumer.New(consumer.Config{
		Brokers: rc.Brokers,
		GroupID: "audit-pipeline-test",
		Topics:  []string{topic},
	}, NewHandler(store, logger), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	runCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(runCtx) }()

	sink := kafkasink.New(producer, topic)
	event := audit.Event{
		CorrelationID:            "corr-pipeline",
		EventCode:                audit.StudyLaunched,
		SystemID:                 "STUDY_BUILDER",
		SystemIP:                 "10.0.0.5",
		ClientIP:                 "192.168.1.10",
		Description:              "Study launched.",
		EventDetail:              "Study launched.",
		ApplicationVersion:       "1.0.0",
		ApplicationComponentName: "Study Builder",
		OccurredAt:               time.Now().UnixMilli(),
	}
	require.NoError(t, sink.Deliver(context.Background(), event))
	// At-least-once: a second delivery of the same logical event must not
	// produce a second row.
	require.NoError(t, sink.Deliver(context.Background(), event))

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		events, err := store.ListByCorrelation(context.Background(), "corr-pipeline")
		require.NoError(t, err)
		if len(events) > 0 {
			assert.Equal(t, audit.StudyLaunched, events[0].EventCode)
			// Give the duplicate time to arrive, then confirm it collapsed.
			time.Sleep(500 * time.Millisecond)
			events, err = store.ListByCorrelation(context.Background(), "corr-pipeline")
			require.NoError(t, err)
			assert.Len(t, events, 1)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("event was not materialized before the deadline")
}
