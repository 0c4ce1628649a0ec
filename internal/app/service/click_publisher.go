package service

import (
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerBio/internal/app/model"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ClickPublisher schedules click-count updates on a JetStream work queue so any
// instance can apply them. Tasks that cannot be handed to JetStream go to the
// fallback scheduler, if any.
type ClickPublisher struct {
	js       nats.JetStreamContext
	fallback ClickScheduler
	logger   *zap.Logger
}

// NewClickPublisher creates a JetStream-backed ClickScheduler.
func NewClickPublisher(js nats.JetStreamContext, fallback ClickScheduler, logger *zap.Logger) *ClickPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickPublisher{js: js, fallback: fallback, logger: logger}
}

// Schedule publishes asynchronously; acknowledgement failures surface through
// the JetStream context's async error handler.
func (p *ClickPublisher) Schedule(task model.ClickCountTask) {
	data, err := json.Marshal(task)
	if err == nil {
		_, err = p.js.PublishAsync(model.ClickStreamSubject, data)
	}
	if err == nil {
		return
	}

	p.logger.Warn("failed to publish click count update",
		zap.String("link_id", task.LinkID),
		zap.String("code", task.Code),
		zap.Error(err),
	)
	if p.fallback != nil {
		p.fallback.Schedule(task)
		return
	}
	metrics.ClickUpdatesTotal.WithLabelValues("dropped").Inc()
}
