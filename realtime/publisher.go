package realtime

import (
	"log/slog"

	"github.com/samber/lo"

	"bell-registry/contract"
	"bell-registry/domain/event"
)

// FanoutPublisher writes an event to every live connection of the target
// users. It provides best-effort fan-out with no guarantees regarding
// delivery, durability, or retries: a dropped live update is acceptable
// because the message is durably stored and appears on the next reload.
//
// FanoutPublisher is safe for concurrent use by multiple goroutines.
type FanoutPublisher struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewFanoutPublisher(log *slog.Logger, registry contract.IRegistry) *FanoutPublisher {
	return &FanoutPublisher{log: log, registry: registry}
}

// Publish delivers e to each live sink of each target. A failing sink is
// logged and skipped; it never aborts delivery to the remaining sinks.
// Offline targets are silent no-ops.
func (p *FanoutPublisher) Publish(targetUserIDs []string, e event.StreamEvent) {
	for _, userID := range lo.Uniq(targetUserIDs) {
		for _, sink := range p.registry.Sinks(userID) {
			if err := sink.Send(e); err != nil {
				p.log.Warn("Dropping stream write",
					"user", userID, "type", e.Type, "err", err)
			}
		}
	}
}
