//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/adapter/feed"
	"github.com/couchcryptid/landslide-feed-etl/internal/adapter/kafka"
	"github.com/couchcryptid/landslide-feed-etl/internal/config"
	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	"github.com/couchcryptid/landslide-feed-etl/internal/pipeline"
	"github.com/couchcryptid/landslide-feed-etl/internal/registry"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSnapshotTopic = "test-station-snapshots"

// snapshotMessage holds a deserialized message read from the snapshot topic.
type snapshotMessage struct {
	Body struct {
		StationID string            `json:"station_id"`
		PassID    string            `json:"pass_id"`
		UpdatedAt *time.Time        `json:"updated_at"`
		Fields    map[string]string `json:"fields"`
	}
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("landslide-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readSnapshotMessage(ctx context.Context, t *testing.T, consumer *kafkago.Reader) snapshotMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	sm := snapshotMessage{Key: string(msg.Key), Headers: make(map[string]string, len(msg.Headers))}
	for _, h := range msg.Headers {
		sm.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &sm.Body), "unmarshal snapshot message")
	return sm
}

// TestRefreshPublishesSnapshot fetches feeds over HTTP, runs a full refresh,
// and verifies one message per registered station lands on the topic.
func TestRefreshPublishesSnapshot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSnapshotTopic: testSnapshotTopic,
	}
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewSnapshotWriter(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	reg, err := registry.Default()
	require.NoError(t, err)

	feeds := newFeedServer(t, map[string]string{
		"adjuntas_t5minute.dat": fiveMinuteFeed("0.2105"),
		"adjuntas_t60min.dat":   hourlyFeed("1.0", "0", "2.5", "bad"),
	})
	client := feed.NewClient(feeds.BaseURL, 5*time.Second, 0, discardLogger())

	o := pipeline.New(client, reg, discardLogger(), metrics, pipeline.WithPublisher(writer))
	snap, err := o.ProcessAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Reporting())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSnapshotTopic,
		GroupID:     fmt.Sprintf("test-snapshot-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]snapshotMessage, reg.Len())
	for len(received) < reg.Len() {
		sm := readSnapshotMessage(ctx, t, consumer)
		received[sm.Key] = sm
	}

	for _, id := range reg.IDs() {
		sm, ok := received[id]
		require.True(t, ok, "missing message for %s", id)
		assert.Equal(t, id, sm.Body.StationID)
		assert.Equal(t, snap.PassID, sm.Body.PassID)
		assert.Equal(t, snap.PassID, sm.Headers["pass_id"])
		_, err := time.Parse(time.RFC3339, sm.Headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")
	}

	adj := received["adjuntas"]
	require.NotNil(t, adj.Body.UpdatedAt)
	assert.Equal(t, "3.50", adj.Body.Fields[domain.RainfallField])
	assert.Equal(t, "40%", adj.Body.Fields[domain.SaturationField])
	assert.Equal(t, "0.2105", adj.Body.Fields[`"wc4_20cm_Avg"`])

	assert.Nil(t, received["cayey"].Body.UpdatedAt)
	assert.Empty(t, received["cayey"].Body.Fields)
}
