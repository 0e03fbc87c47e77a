package memory_test

import (
	"testing"

	"github.com/scoutmind/scout-go-sdk/core"
	"github.com/scoutmind/scout-go-sdk/memory"
)

func TestDetectContractViolationsClean(t *testing.T) {
	check := memory.ContractCheck{
		SignalStatus: core.SignalOK,
		MarketSignal: core.MarketStrong,
		Verdict:      core.VerdictPursue,
		HypeScore:    4,
		Reasoning:    "Mature ecosystem with broad production adoption.",
		Confidence:   core.ConfidenceHigh,
	}
	if got := memory.DetectContractViolations(check); len(got) != 0 {
		t.Fatalf("clean check produced violations: %v", got)
	}
	if memory.HasContractViolation(check) {
		t.Error("HasContractViolation = true for clean check")
	}
}

func TestDetectContractViolationsRules(t *testing.T) {
	cases := []struct {
		name  string
		check memory.ContractCheck
		want  string
	}{
		{
			name: "insufficient signal with high confidence",
			check: memory.ContractCheck{
				SignalStatus: core.SignalInsufficient,
				MarketSignal: core.MarketMixed,
				Verdict:      core.VerdictWatchlist,
				HypeScore:    3,
				Confidence:   core.ConfidenceHigh,
			},
			want: "insufficient signal but high confidence",
		},
		{
			name: "pursuing weak market at contradictory hype",
			check: memory.ContractCheck{
				SignalStatus: core.SignalOK,
				MarketSignal: core.MarketWeak,
				Verdict:      core.VerdictPursue,
				HypeScore:    9,
				Confidence:   core.ConfidenceMedium,
			},
			want: "weak market with high hype, yet pursuing",
		},
		{
			name: "reasoning admits missing evidence",
			check: memory.ContractCheck{
				SignalStatus: core.SignalOK,
				MarketSignal: core.MarketMixed,
				Verdict:      core.VerdictExplore,
				HypeScore:    4,
				Reasoning:    "There is no direct evidence of production use, but it feels solid.",
				Confidence:   core.ConfidenceHigh,
			},
			want: "reasoning admits missing evidence but claims high confidence",
		},
		{
			name: "high confidence pursue on weak market",
			check: memory.ContractCheck{
				SignalStatus: core.SignalOK,
				MarketSignal: core.MarketWeak,
				Verdict:      core.VerdictPursue,
				HypeScore:    4,
				Confidence:   core.ConfidenceHigh,
			},
			want: "weak market signal but high confidence in pursuing",
		},
		{
			name: "maximum hype on weak market",
			check: memory.ContractCheck{
				SignalStatus: core.SignalOK,
				MarketSignal: core.MarketWeak,
				Verdict:      core.VerdictIgnore,
				HypeScore:    10,
				Confidence:   core.ConfidenceLow,
			},
			want: "maximum hype contradicts weak market signal",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := memory.DetectContractViolations(tc.check)
			if len(got) == 0 {
				t.Fatalf("expected violation %q, got none", tc.want)
			}
			found := false
			for _, v := range got {
				if v == tc.want {
					found = true
				}
			}
			if !found {
				t.Errorf("violations %v missing %q", got, tc.want)
			}
		})
	}
}

func TestDetectContractViolationsStacks(t *testing.T) {
	// A weak market pursued at hype 10 with high confidence trips three
	// independent rules. All of them must be reported.
	check := memory.ContractCheck{
		SignalStatus: core.SignalOK,
		MarketSignal: core.MarketWeak,
		Verdict:      core.VerdictPursue,
		HypeScore:    10,
		Confidence:   core.ConfidenceHigh,
	}
	got := memory.DetectContractViolations(check)
	if len(got) != 3 {
		t.Fatalf("violations = %v, want 3 entries", got)
	}
}
