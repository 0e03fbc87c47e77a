package tools

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Orchestrator is the single place evidence providers are invoked. The
// three providers run concurrently under one bounded timeout; a provider
// failure degrades to its documented fallback evidence, never an error to
// the pipeline.
type Orchestrator struct {
	freshness FreshnessProvider
	market    MarketProvider
	friction  FrictionProvider
	timeout   time.Duration
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithTimeout bounds the combined provider run (default 10s).
func WithTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// NewOrchestrator wires the three providers. Nil providers get the static
// reference implementations.
func NewOrchestrator(freshness FreshnessProvider, market MarketProvider, friction FrictionProvider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		freshness: freshness,
		market:    market,
		friction:  friction,
		timeout:   10 * time.Second,
	}
	if o.freshness == nil {
		o.freshness = NewFreshness(nil, time.Time{})
	}
	if o.market == nil {
		o.market = NewMarket(nil)
	}
	if o.friction == nil {
		o.friction = NewFriction()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Collect runs all providers concurrently and assembles the evidence
// bundle. Individual provider errors are logged and replaced with
// conservative fallbacks; Collect itself never fails.
func (o *Orchestrator) Collect(ctx context.Context, topic string, userProfile string) core.ToolEvidence {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var evidence core.ToolEvidence
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fresh, err := o.freshness.CheckFreshness(gctx, topic)
		if err != nil {
			log.Printf("[TOOLS] Freshness check failed, assuming current: %v", err)
			fresh = core.FreshnessEvidence{IsLikelyOutdated: false, Reason: "Freshness check unavailable"}
		}
		evidence.Freshness = fresh
		return nil
	})

	g.Go(func() error {
		market, err := o.market.MarketSignal(gctx, topic)
		if err != nil {
			log.Printf("[TOOLS] Market signal failed, assuming unknown: %v", err)
			market = core.MarketEvidence{Adoption: "low", HiringSignal: "weak", EcosystemMaturity: "immature", Confidence: 0.3}
		}
		evidence.Market = market
		return nil
	})

	g.Go(func() error {
		friction, err := o.friction.EstimateFriction(gctx, topic, userProfile)
		if err != nil {
			log.Printf("[TOOLS] Friction estimate failed, assuming medium: %v", err)
			friction = core.FrictionEvidence{OverallFriction: "medium", LearningCurve: "medium", InfraCost: "medium"}
		}
		evidence.Friction = friction
		return nil
	})

	// Goroutines never return errors; Wait only observes ctx expiry.
	_ = g.Wait()

	evidence.WatchlistTriggered = evidence.Freshness.IsLikelyOutdated
	if evidence.WatchlistTriggered {
		log.Printf("[TOOLS] Freshness outdated for %q: %s", topic, evidence.Freshness.Reason)
	}
	return evidence
}
