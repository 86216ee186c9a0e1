// Package notify delivers best-efforts follow-up requests to the mail
// pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mesocratic/models"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// FollowUpStream is the JetStream stream follow-up requests are stored in
const FollowUpStream = "compliance_followups"

// NATSNotifier publishes follow-up requests to JetStream, where the mail
// worker picks them up
type NATSNotifier struct {
	servers        string
	subject        string
	nc             *nats.Conn
	js             nats.JetStreamContext
	mu             sync.RWMutex
	reconnectDelay time.Duration
	maxReconnects  int
}

// NewNATSNotifier creates a notifier for the given servers and subject
func NewNATSNotifier(servers, subject string) *NATSNotifier {
	return &NATSNotifier{
		servers:        servers,
		subject:        subject,
		reconnectDelay: 2 * time.Second,
		maxReconnects:  10,
	}
}

// Connect establishes the NATS connection and makes sure the stream exists
func (n *NATSNotifier) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name("mesocratic-compliance"),
		nats.MaxReconnects(n.maxReconnects),
		nats.ReconnectWait(n.reconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(n.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n.mu.Lock()
	n.nc = nc
	n.js = js
	n.mu.Unlock()

	if err := n.ensureStream(); err != nil {
		n.Close()
		return err
	}

	log.WithFields(log.Fields{
		"servers": n.servers,
		"subject": n.subject,
	}).Info("Connected to NATS with JetStream")
	return nil
}

func (n *NATSNotifier) ensureStream() error {
	if _, err := n.js.StreamInfo(FollowUpStream); err == nil {
		return nil
	}

	cfg := &nats.StreamConfig{
		Name:        FollowUpStream,
		Subjects:    []string{n.subject},
		Retention:   nats.WorkQueuePolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Duplicates:  24 * time.Hour,
		Description: "Best-efforts employer/occupation follow-up requests",
	}
	if _, err := n.js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", FollowUpStream, err)
	}

	log.WithField("stream", FollowUpStream).Info("Created JetStream stream")
	return nil
}

// SendFollowUp publishes one request. The message id is derived from the
// donor and attempt number so a retried publish is deduplicated.
func (n *NATSNotifier) SendFollowUp(ctx context.Context, request *models.FollowUpRequest) error {
	n.mu.RLock()
	js := n.js
	n.mu.RUnlock()
	if js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal follow-up request: %w", err)
	}

	_, err = js.Publish(n.subject, payload, nats.Context(ctx), nats.MsgId(messageID(request)))
	if err != nil {
		return fmt.Errorf("failed to publish follow-up to subject %s: %w", n.subject, err)
	}

	log.WithFields(log.Fields{
		"subject": n.subject,
		"donorID": request.DonorID,
		"attempt": request.Attempt,
	}).Debug("Published follow-up request")
	return nil
}

// Close drains and closes the connection
func (n *NATSNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			log.WithError(err).Warn("Failed to drain NATS connection")
		}
		n.nc = nil
		n.js = nil
		log.Info("NATS connection closed")
	}
}

func messageID(request *models.FollowUpRequest) string {
	return fmt.Sprintf("%s-%s-%d", models.FollowUpTypeEmployerOccupation, request.DonorID, request.Attempt)
}
