package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerBio/internal/app/model"
	"go.uber.org/zap"
)

// ClickConsumer drains the click-count work queue and applies each task once.
type ClickConsumer struct {
	js      nats.JetStreamContext
	applier *ClickApplier
	logger  *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewClickConsumer creates a new click count consumer
func NewClickConsumer(js nats.JetStreamContext, applier *ClickApplier, logger *zap.Logger) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{
		js:      js,
		applier: applier,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *ClickConsumer) Start() error {
	// Create stream if not exists
	if _, err := c.js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:      model.ClickStreamName,
			Subjects:  []string{model.ClickStreamSubject},
			Retention: nats.WorkQueuePolicy,
			MaxBytes:  model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName,
		nats.Bind(model.ClickStreamName, model.ClickConsumerName))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.wg.Add(1)
	go c.consume(sub)
	return nil
}

// Stop ends the fetch loop and waits for the in-flight batch.
func (c *ClickConsumer) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	defer c.wg.Done()
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-c.stop:
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(32, nats.MaxWait(2*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch click count updates", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.handle(msg)
		}
	}
}

func (c *ClickConsumer) handle(msg *nats.Msg) {
	var task model.ClickCountTask
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		c.logger.Error("failed to unmarshal click count update", zap.Error(err))
		_ = msg.Term()
		return
	}

	// Failed increments are terminated rather than redelivered; the count is
	// best-effort and a redelivery could double count.
	if err := c.applier.Apply(context.Background(), task); err != nil {
		_ = msg.Term()
		return
	}
	_ = msg.Ack()
}
