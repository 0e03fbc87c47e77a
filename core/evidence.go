package core

// ToolEvidence is the combined output of the external evidence providers.
// The pipeline consumes these fixed shapes; it never calls providers
// directly (only the tools.Orchestrator does).
type ToolEvidence struct {
	Freshness FreshnessEvidence `json:"freshness"`
	Market    MarketEvidence    `json:"market"`
	Friction  FrictionEvidence  `json:"friction"`

	// WatchlistTriggered is set when freshness indicates the model's
	// knowledge is likely stale for this topic.
	WatchlistTriggered bool `json:"watchlist_triggered"`
}

// FreshnessEvidence reports whether the model's training data is likely
// behind the topic's release cadence.
type FreshnessEvidence struct {
	IsLikelyOutdated   bool   `json:"is_likely_outdated"`
	Reason             string `json:"reason,omitempty"`
	LatestKnownVersion string `json:"latest_known_version,omitempty"`
	ReleaseDate        string `json:"release_date,omitempty"`
}

// MarketEvidence summarizes adoption signals.
type MarketEvidence struct {
	Adoption          string  `json:"adoption"`           // low, moderate, high
	HiringSignal      string  `json:"hiring_signal"`      // weak, moderate, strong
	EcosystemMaturity string  `json:"ecosystem_maturity"` // immature, growing, mature
	Confidence        float64 `json:"confidence"`
}

// FrictionEvidence quantifies real-world adoption pain.
type FrictionEvidence struct {
	OverallFriction string `json:"overall_friction"` // low, medium, high
	LearningCurve   string `json:"learning_curve"`   // gentle, medium, steep
	InfraCost       string `json:"infra_cost"`       // low, medium, high
}
