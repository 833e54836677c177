//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"example.com/exercisetracker/internal/domain"
)

func TestKafkaPublisherDeliversEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		testcontainers.WithEnv(map[string]string{"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "exercise_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	publisher := NewKafkaPublisher(brokers, topic)
	defer publisher.Close()

	rec := domain.ExerciseRecord{Description: "row", Duration: 20, Date: time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC)}
	evt := domain.Event{
		Type:       domain.EventExerciseLogged,
		PersonID:   "2f0c5ae0-5f6b-4e1f-9a7b-7a8d3b1f0c11",
		Username:   "rower",
		Exercise:   &rec,
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.Eventually(t, func() bool {
		return publisher.Publish(ctx, evt) == nil
	}, 30*time.Second, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	require.Equal(t, evt.PersonID, string(msg.Key))
	require.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte(domain.EventExerciseLogged)}}, msg.Headers)

	var got domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, evt.Username, got.Username)
	require.NotNil(t, got.Exercise)
	require.Equal(t, rec.Description, got.Exercise.Description)
	require.True(t, rec.Date.Equal(got.Exercise.Date))
}
