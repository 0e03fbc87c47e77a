// Package tools holds the evidence providers consumed by the reality-check
// stage. Providers are the only components that touch external data; the
// pipeline only ever sees their fixed-shape outputs, collected through the
// Orchestrator.
package tools

import (
	"context"

	"github.com/scoutmind/scout-go-sdk/core"
)

// FreshnessProvider reports whether model knowledge of a topic is likely
// stale relative to the topic's release cadence.
type FreshnessProvider interface {
	CheckFreshness(ctx context.Context, topic string) (core.FreshnessEvidence, error)
}

// MarketProvider reports adoption, hiring, and ecosystem signals for a topic.
type MarketProvider interface {
	MarketSignal(ctx context.Context, topic string) (core.MarketEvidence, error)
}

// FrictionProvider estimates real-world adoption friction for a topic,
// adjusted by the user's background.
type FrictionProvider interface {
	EstimateFriction(ctx context.Context, topic string, userProfile string) (core.FrictionEvidence, error)
}
