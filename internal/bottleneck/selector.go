package bottleneck

import (
	"sort"

	"rigcheck/internal/models"
)

const (
	// DefaultThreshold is the impact a component must exceed to be called a bottleneck
	DefaultThreshold = 10.0
	// DefaultAgreementMargin is the headroom the margin signal requires
	DefaultAgreementMargin = 5.0
)

// Signal names reported in BottleneckVerdict.Signals
const (
	SignalThreshold = "threshold"
	SignalMargin    = "margin"
	SignalRemote    = "remote"
)

// KindImpact is one component's impact, used for ranking
type KindImpact struct {
	Kind   models.ComponentKind
	Impact float64
}

// Rank orders components by impact, highest first.
// Equal impacts keep the fixed priority CPU > GPU > RAM.
func Rank(impact models.ImpactResult) []KindImpact {
	ranked := make([]KindImpact, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		ranked = append(ranked, KindImpact{Kind: k, Impact: impact.Get(k)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Impact > ranked[j].Impact
	})
	return ranked
}

// Select decides the bottleneck with the default agreement margin
func Select(impact models.ImpactResult, threshold float64) models.BottleneckVerdict {
	return SelectWithMargin(impact, threshold, DefaultAgreementMargin)
}

// SelectWithMargin returns a balanced verdict when no impact exceeds threshold,
// otherwise the component with the highest impact.
//
// Agreement starts from two local signals: the threshold verdict itself and
// a margin check that the verdict would survive a shift of margin points
// (runner-up at least margin below the bottleneck, bottleneck at least margin
// above threshold; for a balanced build, max impact at least margin below
// threshold). Corroborate folds in further signals.
func SelectWithMargin(impact models.ImpactResult, threshold, margin float64) models.BottleneckVerdict {
	ranked := Rank(impact)
	top := ranked[0]

	var bottleneck models.ComponentKind
	var robust bool
	if top.Impact <= threshold {
		robust = top.Impact == 0 || top.Impact <= threshold-margin
	} else {
		bottleneck = top.Kind
		robust = top.Impact-ranked[1].Impact >= margin && top.Impact-threshold >= margin
	}

	v := models.BottleneckVerdict{
		Bottleneck: bottleneck,
		Signals: []models.Signal{
			{Name: SignalThreshold, Bottleneck: bottleneck, Concurs: true},
			{Name: SignalMargin, Bottleneck: bottleneck, Concurs: robust},
		},
	}
	v.Agreement = concurs(v.Signals)
	return v
}

// Corroborate adds an independent opinion to a verdict and recomputes Agreement
func Corroborate(v models.BottleneckVerdict, name string, other models.ComponentKind) models.BottleneckVerdict {
	signals := make([]models.Signal, 0, len(v.Signals)+1)
	signals = append(signals, v.Signals...)
	signals = append(signals, models.Signal{
		Name:       name,
		Bottleneck: other,
		Concurs:    other == v.Bottleneck,
	})
	v.Signals = signals
	v.Agreement = concurs(signals)
	return v
}

func concurs(signals []models.Signal) bool {
	for _, s := range signals {
		if !s.Concurs {
			return false
		}
	}
	return len(signals) > 0
}
