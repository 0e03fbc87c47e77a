package memory

import (
	"strings"

	"github.com/scoutmind/scout-go-sdk/core"
)

// noEvidencePhrases flag reasoning that admits there is no evidence while
// still claiming confidence.
var noEvidencePhrases = []string{
	"no direct evidence",
	"no evidence",
	"insufficient evidence",
	"lack of evidence",
	"no clear evidence",
	"evidence is lacking",
}

// ContractCheck is the input to violation detection: the claimed state of a
// finished (or in-flight) decision.
type ContractCheck struct {
	SignalStatus core.SignalStatus
	MarketSignal core.MarketSignal
	Verdict      core.Verdict
	HypeScore    int
	Reasoning    string
	Confidence   core.Confidence
}

// DetectContractViolations evaluates the internal-consistency rules and
// returns the reasons that fired. A non-empty result vetoes every memory
// write for the decision and forces a conservative verdict upstream.
//
// The checks are independent of the write policy on purpose: policy decides
// what is worth remembering, contracts decide what cannot be trusted.
func DetectContractViolations(c ContractCheck) []string {
	var violations []string

	if c.SignalStatus == core.SignalInsufficient && c.Confidence == core.ConfidenceHigh {
		violations = append(violations, "insufficient signal but high confidence")
	}
	if c.MarketSignal == core.MarketWeak && c.HypeScore >= core.ContradictoryHypeFloor && c.Verdict == core.VerdictPursue {
		violations = append(violations, "weak market with high hype, yet pursuing")
	}
	if c.Confidence == core.ConfidenceHigh && hasNoEvidencePhrase(c.Reasoning) {
		violations = append(violations, "reasoning admits missing evidence but claims high confidence")
	}
	if c.MarketSignal == core.MarketWeak && c.Confidence == core.ConfidenceHigh && c.Verdict == core.VerdictPursue {
		violations = append(violations, "weak market signal but high confidence in pursuing")
	}
	if c.HypeScore == core.MaxHype && c.MarketSignal == core.MarketWeak {
		violations = append(violations, "maximum hype contradicts weak market signal")
	}

	return violations
}

// HasContractViolation reports whether any consistency rule fires.
func HasContractViolation(c ContractCheck) bool {
	return len(DetectContractViolations(c)) > 0
}

func hasNoEvidencePhrase(reasoning string) bool {
	lower := strings.ToLower(reasoning)
	for _, p := range noEvidencePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
