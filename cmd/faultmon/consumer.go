package main

import (
	"crypto/tls"
	"log/slog"

	"github.com/corenet-ops/nsp-faultmon/internal/bus"
	"github.com/corenet-ops/nsp-faultmon/internal/pipeline"
)

// consumerFactory builds the Kafka consumer once the supervisor learns
// the fault topic from the subscription response.
type consumerFactory struct {
	broker  string
	groupID string
	tls     *tls.Config
	handler bus.Handler
	logger  *slog.Logger
}

func (f *consumerFactory) NewConsumer(topicID string) (pipeline.Consumer, error) {
	reader := bus.NewReader(bus.ReaderConfig{
		Broker:  f.broker,
		Topic:   topicID,
		GroupID: f.groupID,
		TLS:     f.tls,
	}, f.logger)

	return bus.NewConsumer(reader, f.handler, f.logger), nil
}
