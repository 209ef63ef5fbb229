package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWrapsEvent(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaProducer{writer: w}

	req := models.RecordRequest{ScenarioID: "A2", Mode: "study", TaskSeconds: 12.5}
	require.NoError(t, p.Publish(context.Background(), EventRecord, "A2", req))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "A2", string(w.msgs[0].Key))

	var ev StudyEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	require.Equal(t, EventRecord, ev.Type)
	require.Equal(t, "A2", ev.ScenarioID)

	var got models.RecordRequest
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	require.Equal(t, req, got)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}
