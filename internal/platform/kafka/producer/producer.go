// Package producer wraps the franz-go client for publishing audit events to
// the event topic. Keys are the event's primary correlation id so consumers
// see per-entity ordering.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "aurum/pkg/platform/audit"
)

// Producer publishes audit events to a single topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// New dials the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &Producer{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, res.Err)
		}
	}
	return nil
}

// Publish sends one event synchronously.
func (p *Producer) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(eventKey(event)),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// eventKey picks the most specific correlation id on the event.
func eventKey(event audit.Event) string {
	switch {
	case !event.OrderRef.IsNil():
		return event.OrderRef.String()
	case !event.TokenID.IsNil():
		return event.TokenID.String()
	case !event.AccountID.IsNil():
		return event.AccountID.String()
	default:
		return event.ID.String()
	}
}

// Close flushes and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
