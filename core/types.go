package core

// Verdict is the final call the pipeline makes about a topic.
type Verdict string

const (
	VerdictPursue    Verdict = "pursue"
	VerdictExplore   Verdict = "explore"
	VerdictWatchlist Verdict = "watchlist"
	VerdictIgnore    Verdict = "ignore"
)

// Valid reports whether v is one of the four known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictPursue, VerdictExplore, VerdictWatchlist, VerdictIgnore:
		return true
	}
	return false
}

// Confidence is the coarse confidence level used across stage outputs.
// Stages produce levels, not floats; Score maps them onto [0,1] where
// numeric comparison is needed.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Score maps a confidence level to its numeric value.
// Unknown levels map to the low score.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.6
	default:
		return 0.3
	}
}

// MarketSignal is the market-adoption signal strength from the reality check.
type MarketSignal string

const (
	MarketWeak   MarketSignal = "weak"
	MarketMixed  MarketSignal = "mixed"
	MarketStrong MarketSignal = "strong"
)

// Baseline maps a market signal to its evidence-strength baseline.
func (m MarketSignal) Baseline() float64 {
	switch m {
	case MarketStrong:
		return 0.9
	case MarketMixed:
		return 0.6
	default:
		return 0.2
	}
}

// SignalStatus reports whether the model found enough public framing
// for a topic to analyze it at all.
type SignalStatus string

const (
	SignalOK           SignalStatus = "ok"
	SignalInsufficient SignalStatus = "insufficient_signal"
)

// Feasibility is how realistic adoption is for the user's background.
type Feasibility string

const (
	FeasibilityLow    Feasibility = "low"
	FeasibilityMedium Feasibility = "medium"
	FeasibilityHigh   Feasibility = "high"
)

// Horizon classifies topic maturity: short (<1yr), medium (1-3yr), long (3+yr).
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// Timeline values attached to verdicts.
const (
	TimelineNow        = "now"
	TimelineThreeMo    = "in 3 months"
	TimelineReevaluate = "re-evaluate in 3 months"
	TimelineWait       = "wait 6+ months"
)

// Empirically chosen thresholds. Tuned against the evaluation set, not
// derived; change with care.
const (
	// TraitSimilarityThreshold is the minimum cosine similarity between
	// reasoning text and a trait's example phrases for trait detection.
	TraitSimilarityThreshold = 0.65

	// MinWriteConfidence is the universal memory-write confidence floor.
	MinWriteConfidence = 0.6

	// EvidenceFloor is the evidence strength below which a claimed high
	// confidence gets dampened.
	EvidenceFloor = 0.5

	// LowHypeCeiling: strong market below this hype level is treated as a
	// durable production-ready pattern.
	LowHypeCeiling = 5

	// TrajectoryHypeCeiling is the maximum hype allowed for the
	// explore-to-pursue trajectory upgrade.
	TrajectoryHypeCeiling = 6

	// MaxStorableHype: topic patterns above this hype level are pure hype
	// and never stored.
	MaxStorableHype = 8

	// ContradictoryHypeFloor: hype at or above this level contradicts a
	// weak market signal when the verdict is pursue.
	ContradictoryHypeFloor = 9

	// MaxHype is the top of the hype scale.
	MaxHype = 10

	// IgnoreStoreConfidence is the minimum confidence score for storing
	// an ignore verdict (confidently identified vaporware).
	IgnoreStoreConfidence = 0.85
)

// EvidenceStrength combines the market baseline with a hype penalty into
// a [0,1] score. Hype only starts costing above 6.
func EvidenceStrength(market MarketSignal, hypeScore int) float64 {
	penalty := float64(hypeScore-6) / 10
	if penalty < 0 {
		penalty = 0
	}
	s := market.Baseline() * (1 - penalty)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
