package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/config"
	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SnapshotWriter produces one message per station for every completed refresh.
// It implements pipeline.SnapshotPublisher.
type SnapshotWriter struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewSnapshotWriter creates a Kafka producer for the configured snapshot topic.
func NewSnapshotWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *SnapshotWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &SnapshotWriter{writer: w, metrics: metrics, logger: logger}
}

// PublishSnapshot serializes every station of snap and writes them in a single
// WriteMessages call. Stations that have never reported are included so
// consumers always see the full mapping.
func (w *SnapshotWriter) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Stations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Stations))
	for i := range snap.Stations {
		msg, err := serializeToMessage(snap, snap.Stations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.PassID, err)
	}
	w.metrics.SnapshotMessagesProduced.Add(float64(len(msgs)))
	w.logger.Debug("snapshot published", "pass_id", snap.PassID, "messages", len(msgs))
	return nil
}

// Close flushes pending messages and closes the producer.
func (w *SnapshotWriter) Close() error {
	return w.writer.Close()
}

// stationMessage is the JSON value of one snapshot message.
type stationMessage struct {
	StationID   string        `json:"station_id"`
	PassID      string        `json:"pass_id"`
	RefreshedAt time.Time     `json:"refreshed_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	Fields      domain.Fields `json:"fields"`
}

// serializeToMessage marshals one station of a snapshot into a Kafka message.
func serializeToMessage(snap domain.Snapshot, st domain.StationState) (kafkago.Message, error) {
	body := stationMessage{
		StationID:   st.ID,
		PassID:      snap.PassID,
		RefreshedAt: snap.RefreshedAt,
		Fields:      st.Fields,
	}
	if st.Reporting() {
		body.UpdatedAt = &st.UpdatedAt
	}
	data, err := json.Marshal(body)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %s: %w", st.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(st.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "pass_id", Value: []byte(snap.PassID)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
