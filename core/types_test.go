package core_test

import (
	"math"
	"testing"

	"github.com/scoutmind/scout-go-sdk/core"
)

func TestConfidenceScore(t *testing.T) {
	cases := []struct {
		confidence core.Confidence
		want       float64
	}{
		{core.ConfidenceHigh, 0.9},
		{core.ConfidenceMedium, 0.6},
		{core.ConfidenceLow, 0.3},
		{core.Confidence("bogus"), 0.3},
		{core.Confidence(""), 0.3},
	}
	for _, c := range cases {
		if got := c.confidence.Score(); got != c.want {
			t.Errorf("Score(%q) = %v, want %v", c.confidence, got, c.want)
		}
	}
}

func TestVerdictValid(t *testing.T) {
	for _, v := range []core.Verdict{core.VerdictPursue, core.VerdictExplore, core.VerdictWatchlist, core.VerdictIgnore} {
		if !v.Valid() {
			t.Errorf("Valid(%q) = false, want true", v)
		}
	}
	if core.Verdict("maybe").Valid() {
		t.Error("Valid(\"maybe\") = true, want false")
	}
}

func TestEvidenceStrength(t *testing.T) {
	cases := []struct {
		market core.MarketSignal
		hype   int
		want   float64
	}{
		{core.MarketStrong, 4, 0.9},  // no hype penalty below 6
		{core.MarketStrong, 6, 0.9},  // penalty starts strictly above 6
		{core.MarketWeak, 2, 0.2},
		{core.MarketMixed, 0, 0.6},
		{core.MarketStrong, 10, 0.9 * 0.6}, // max penalty 0.4
		{core.MarketWeak, 10, 0.2 * 0.6},
		{core.MarketMixed, 8, 0.6 * 0.8},
	}
	for _, c := range cases {
		got := core.EvidenceStrength(c.market, c.hype)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("EvidenceStrength(%s, %d) = %v, want %v", c.market, c.hype, got, c.want)
		}
	}
}

func TestEvidenceStrengthBounds(t *testing.T) {
	for _, market := range []core.MarketSignal{core.MarketWeak, core.MarketMixed, core.MarketStrong} {
		for hype := 0; hype <= 10; hype++ {
			s := core.EvidenceStrength(market, hype)
			if s < 0 || s > 1 {
				t.Errorf("EvidenceStrength(%s, %d) = %v out of [0,1]", market, hype, s)
			}
		}
	}
}
