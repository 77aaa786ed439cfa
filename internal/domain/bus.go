package domain

import (
	"context"
)

// EventBus carries pipeline events between the API and the analysis worker.
// Backed by Go channels (community) or NATS (pro). Every call is tenant scoped.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, tenantID string, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, tenantID string, topic string, handler MessageHandler) (Subscription, error)

	// Request publishes a message carrying a reply address and waits for
	// the first reply or ctx to end.
	Request(ctx context.Context, tenantID string, topic string, payload []byte) ([]byte, error)

	// Reply answers a message received through Request. It fails when msg
	// has no reply address.
	Reply(ctx context.Context, msg *Message, payload []byte) error

	Ping(ctx context.Context) error
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`

	// ReplyTo is set on messages sent with Request.
	ReplyTo string `json:"replyTo,omitempty"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig selects and tunes the event bus.
type EventBusConfig struct {
	Type string `mapstructure:"type"` // channel, nats

	ChannelBufferSize int `mapstructure:"channel_buffer_size"`

	NATSUrl           string `mapstructure:"nats_url"`
	NATSToken         string `mapstructure:"nats_token"`
	NATSMaxReconnects int    `mapstructure:"nats_max_reconnects"`
	NATSReconnectWait int    `mapstructure:"nats_reconnect_wait"` // seconds
}

// Standard topic names for the analysis pipeline.
const (
	TopicReportIngested    = "storelens.report.ingested"
	TopicAnalysisCompleted = "storelens.analysis.completed"
	TopicRiskAlert         = "storelens.risk.alert"
)

// RiskAlert is published when an analysis ends at HIGH or CRITICAL.
type RiskAlert struct {
	AnalysisID   string    `json:"analysisId"`
	MerchantID   string    `json:"merchantId"`
	OverallLevel RiskLevel `json:"overallLevel"`
	AverageScore float64   `json:"averageScore"`
	Codes        []string  `json:"codes"`
	Summary      string    `json:"summary"`
}
