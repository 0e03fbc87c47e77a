package tools

import (
	"context"
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Market serves adoption signals from a static snapshot. Production would
// back this with job-board and package-registry queries; the shape of the
// evidence is the contract, not the source.
type Market struct {
	table map[string]core.MarketEvidence
}

// NewMarket creates a market provider. A nil table starts with the
// built-in snapshot.
func NewMarket(table map[string]core.MarketEvidence) *Market {
	if table == nil {
		table = defaultMarketTable()
	}
	return &Market{table: table}
}

// MarketSignal returns the adoption evidence for the first known
// technology mentioned in the topic. Unknown topics get a low-confidence
// unknown bundle rather than an error.
func (m *Market) MarketSignal(ctx context.Context, topic string) (core.MarketEvidence, error) {
	if err := ctx.Err(); err != nil {
		return core.MarketEvidence{}, err
	}

	lowered := strings.ToLower(topic)
	for tech, evidence := range m.table {
		if strings.Contains(lowered, tech) {
			return evidence, nil
		}
	}
	return core.MarketEvidence{
		Adoption:          "low",
		HiringSignal:      "weak",
		EcosystemMaturity: "immature",
		Confidence:        0.3,
	}, nil
}

func defaultMarketTable() map[string]core.MarketEvidence {
	mature := func(conf float64) core.MarketEvidence {
		return core.MarketEvidence{Adoption: "high", HiringSignal: "strong", EcosystemMaturity: "mature", Confidence: conf}
	}
	growing := func(hiring string, conf float64) core.MarketEvidence {
		return core.MarketEvidence{Adoption: "moderate", HiringSignal: hiring, EcosystemMaturity: "growing", Confidence: conf}
	}
	return map[string]core.MarketEvidence{
		"redis":      mature(0.9),
		"postgresql": mature(0.9),
		"mysql":      mature(0.9),
		"typescript": mature(0.85),
		"python":     mature(0.95),
		"docker":     mature(0.9),
		"kubernetes": mature(0.85),
		"react":      mature(0.9),
		"node":       mature(0.9),
		"fastapi":    mature(0.8),
		"aws":        mature(0.95),
		"golang":     mature(0.85),
		"rust":       growing("moderate", 0.8),
		"svelte":     growing("moderate", 0.7),
		"deno":       growing("weak", 0.7),
		"htmx":       growing("weak", 0.65),
		"zig":        {Adoption: "low", HiringSignal: "weak", EcosystemMaturity: "growing", Confidence: 0.6},
	}
}
