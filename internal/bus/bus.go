package bus

import (
	"fmt"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// New builds the bus selected by cfg.Type: "channel" for a single process,
// "nats" when the API and workers run separately.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
