package eventing

import "context"

// Publisher wraps events in envelopes before handing them to the bus, so
// downstream consumers can deduplicate by event id. Delivery is fire and
// forget: per-trigger invocations tolerate duplicates, so there is no
// persistent outbox behind this.
type Publisher struct {
	bus EventBus
}

// NewPublisher constructs a publisher.
func NewPublisher(bus EventBus) *Publisher {
	return &Publisher{bus: bus}
}

// Publish builds an envelope for the event and dispatches it on the bus with
// the envelope attached to the context.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.bus == nil {
		return nil
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx))
	if err != nil {
		return err
	}
	return p.bus.Publish(WithEnvelope(ctx, env), event)
}
