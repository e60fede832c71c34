package hedera

import (
	"context"

	"github.com/SaucerHedge/agents/internal/ability"
)

// Invocation captures the structured result of executing one ability
// against the network. Payload keys are ability specific and consumed by
// the response formatter.
type Invocation struct {
	TransactionRef string
	Payload        map[string]any
}

// Invoker is the execution backend contract. Implementations validate the
// input against the ability's declared schema before invoking; faults are
// returned as errors and normalized by the dispatcher, never panicked.
type Invoker interface {
	Invoke(ctx context.Context, desc ability.Descriptor, input map[string]any) (*Invocation, error)
}
