package bottleneck

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"rigcheck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comp(kind models.ComponentKind, score float64) models.CanonicalComponent {
	return models.CanonicalComponent{Kind: kind, CanonicalID: string(kind), BenchmarkScore: score}
}

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return NewEngine(c, NewNormalizer(c))
}

// =============================================================================
// Catalog
// =============================================================================

func TestDefaultCatalog_Loads(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Entries(models.KindCPU))
	assert.NotEmpty(t, c.Entries(models.KindGPU))
	assert.NotEmpty(t, c.Entries(models.KindRAM))
	assert.Equal(t, len(c.Entries(models.KindCPU))+len(c.Entries(models.KindGPU))+len(c.Entries(models.KindRAM)), c.Len())
}

func TestParseCatalog_RejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"missing section": "cpu:\n  - {id: a, name: A, score: 10}\ngpu:\n  - {id: b, name: B, score: 10}\n",
		"zero score":      "cpu:\n  - {id: a, name: A, score: 0}\ngpu:\n  - {id: b, name: B, score: 10}\nram:\n  - {id: c, name: C, score: 10}\n",
		"duplicate id":    "cpu:\n  - {id: a, name: A, score: 10}\ngpu:\n  - {id: a, name: B, score: 10}\nram:\n  - {id: c, name: C, score: 10}\n",
		"missing name":    "cpu:\n  - {id: a, score: 10}\ngpu:\n  - {id: b, name: B, score: 10}\nram:\n  - {id: c, name: C, score: 10}\n",
		"not yaml":        "cpu: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLookup_MissingIDPanics(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Panics(t, func() { c.Lookup("no-such-part") })
	assert.Equal(t, 100.0, c.Lookup("nvidia-geforce-rtx-4090"))
}

// =============================================================================
// Normalizer
// =============================================================================

func TestComponentKey(t *testing.T) {
	assert.Equal(t, "i 9 14900 k", componentKey("Intel(R) Core(TM) i9-14900K"))
	assert.Equal(t, "i 9 14900 k", componentKey("  i9   14900k "))
	assert.Equal(t, "rtx 4070 ti", componentKey("NVIDIA GeForce RTX™ 4070 Ti"))
	assert.Equal(t, "16 gb ddr 4 3200", componentKey("16GB DDR4 3200MHz"))
	assert.Equal(t, "32 gb ddr 5 6000", componentKey("32 GB DDR5 6000 MT/s"))
	assert.Equal(t, "i 7 9700 k", componentKey("Intel(R) Core(TM) i7-9700K CPU @ 3.60GHz"))
	assert.Equal(t, "", componentKey("   "))
}

func TestNormalize_ExactAndTolerant(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	n := NewNormalizer(c)

	cases := []struct {
		raw  string
		kind models.ComponentKind
		want string
	}{
		{"Intel Core i9-14900K", models.KindCPU, "intel-core-i9-14900k"},
		{"intel core I9 14900k", models.KindCPU, "intel-core-i9-14900k"},
		{"AMD Ryzen 7 7800X3D", models.KindCPU, "amd-ryzen-7-7800x3d"},
		{"7800x3d", models.KindCPU, "amd-ryzen-7-7800x3d"},
		{"rtx 4070", models.KindGPU, "nvidia-geforce-rtx-4070"},
		{"GeForce RTX 4070 Ti Super", models.KindGPU, "nvidia-geforce-rtx-4070-ti-super"},
		{"Radeon RX 7900 XTX", models.KindGPU, "amd-radeon-rx-7900-xtx"},
		{"16GB DDR4 3200MHz", models.KindRAM, "ddr4-16gb-3200"},
		{"32gb ddr5-6000", models.KindRAM, "ddr5-32gb-6000"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := n.Normalize(tc.raw, tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.CanonicalID)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, c.Lookup(tc.want), got.BenchmarkScore)
		})
	}
}

func TestNormalize_FuzzyTypo(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	got, err := NewNormalizer(c).Normalize("RTX 4070 Ti Supr", models.KindGPU)
	require.NoError(t, err)
	assert.Equal(t, "nvidia-geforce-rtx-4070-ti-super", got.CanonicalID)
}

func TestNormalize_DifferentModelNumberIsUnknown(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	n := NewNormalizer(c)

	cases := []struct {
		raw     string
		kind    models.ComponentKind
		nearest string
	}{
		{"GTX 1080 Ti", models.KindGPU, "NVIDIA GeForce GTX 1050 Ti"},
		{"i9-12900K", models.KindCPU, "Intel Core i9-14900K"},
		{"RX 6800 XT", models.KindGPU, "AMD Radeon RX 7800 XT"},
		{"16GB DDR4-3000", models.KindRAM, "16GB DDR4-3200"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := n.Normalize(tc.raw, tc.kind)
			require.Error(t, err, "resolved to %s", got.CanonicalID)

			var nf *NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, tc.raw, nf.Input)
			assert.Contains(t, nf.Suggestions, tc.nearest)
		})
	}
}

func TestNumberTokens(t *testing.T) {
	assert.Equal(t, []string{"1080"}, numberTokens(componentKey("GTX 1080 Ti")))
	assert.Equal(t, []string{"16", "4", "3200"}, numberTokens(componentKey("16GB DDR4-3200")))
	assert.Empty(t, numberTokens(componentKey("not a real cpu")))
}

func TestNormalize_UnknownInput(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	n := NewNormalizer(c)

	_, err = n.Normalize("not a real cpu", models.KindCPU)
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, models.KindCPU, nf.Kind)
	assert.Equal(t, "not a real cpu", nf.Input)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNormalize_EmptyInput(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = NewNormalizer(c).Normalize("   ", models.KindGPU)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalize_WrongKindDoesNotMatch(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = NewNormalizer(c).Normalize("RTX 4090", models.KindCPU)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalize_SuggestsNearNames(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = NewNormalizer(c).Normalize("rx 79", models.KindGPU)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	require.NotEmpty(t, nf.Suggestions)
	assert.LessOrEqual(t, len(nf.Suggestions), maxSuggestions)
	assert.Contains(t, nf.Suggestions[0], "RX 79")
}

func TestNormalize_TieIsLoggedAndFirstEntryWins(t *testing.T) {
	table := `
cpu:
  - {id: first, name: Alpha 1000X, score: 50}
  - {id: second, name: Alpha 1000Z, score: 60}
gpu:
  - {id: g, name: Some GPU, score: 50}
ram:
  - {id: r, name: 8GB DDR4-3200, score: 40}
`
	c, err := ParseCatalog([]byte(table))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewNormalizer(c, WithLogger(logger), WithMatchThreshold(0.5))

	got, err := n.Normalize("alpha 1000", models.KindCPU)
	require.NoError(t, err)
	assert.Equal(t, "first", got.CanonicalID)
	assert.Contains(t, buf.String(), "ambiguous component match")
	assert.Contains(t, buf.String(), "second")
}

// =============================================================================
// Impact Estimator
// =============================================================================

func TestEstimate_Monotonic(t *testing.T) {
	gpu := comp(models.KindGPU, 70)
	ram := comp(models.KindRAM, 55)
	prev := -1.0
	for score := 100.0; score >= 1; score -= 3 {
		impact := Estimate(comp(models.KindCPU, score), gpu, ram)
		assert.GreaterOrEqual(t, impact.CPU, prev, "score %.0f", score)
		prev = impact.CPU
	}
}

func TestEstimate_Idempotent(t *testing.T) {
	cpu, gpu, ram := comp(models.KindCPU, 33.3), comp(models.KindGPU, 77.7), comp(models.KindRAM, 51.9)
	assert.Equal(t, Estimate(cpu, gpu, ram), Estimate(cpu, gpu, ram))
}

func TestEstimate_Range(t *testing.T) {
	impact := Estimate(comp(models.KindCPU, 1), comp(models.KindGPU, 100), comp(models.KindRAM, 50))
	assert.InDelta(t, 99.0, impact.CPU, 1e-9)
	assert.Equal(t, 0.0, impact.GPU)
	assert.InDelta(t, 50.0, impact.RAM, 1e-9)
}

// =============================================================================
// Bottleneck Selector
// =============================================================================

func TestSelect_BalancedWhenEqual(t *testing.T) {
	impact := Estimate(comp(models.KindCPU, 60), comp(models.KindGPU, 60), comp(models.KindRAM, 60))
	assert.Equal(t, models.ImpactResult{}, impact)

	v := Select(impact, DefaultThreshold)
	assert.True(t, v.Balanced())
	assert.True(t, v.Agreement)
}

func TestSelect_ClearCPUBottleneck(t *testing.T) {
	impact := Estimate(comp(models.KindCPU, 10), comp(models.KindGPU, 90), comp(models.KindRAM, 90))
	v := Select(impact, DefaultThreshold)
	assert.Equal(t, models.KindCPU, v.Bottleneck)
	assert.Greater(t, impact.CPU, DefaultThreshold)
	assert.True(t, v.Agreement)
}

func TestSelect_AtThresholdIsBalanced(t *testing.T) {
	v := Select(models.ImpactResult{CPU: 10, GPU: 0, RAM: 3}, 10)
	assert.True(t, v.Balanced())
	assert.False(t, v.Agreement, "impact sits on the threshold so the margin signal dissents")
}

func TestSelect_TieBreakPriority(t *testing.T) {
	assert.Equal(t, models.KindCPU, Select(models.ImpactResult{CPU: 40, GPU: 40, RAM: 40}, 10).Bottleneck)
	assert.Equal(t, models.KindGPU, Select(models.ImpactResult{CPU: 0, GPU: 40, RAM: 40}, 10).Bottleneck)
	assert.Equal(t, models.KindRAM, Select(models.ImpactResult{CPU: 0, GPU: 20, RAM: 40}, 10).Bottleneck)
}

func TestSelect_CloseRunnerUpDisagrees(t *testing.T) {
	v := Select(models.ImpactResult{CPU: 40, GPU: 38, RAM: 0}, 10)
	assert.Equal(t, models.KindCPU, v.Bottleneck)
	assert.False(t, v.Agreement)
}

func TestCorroborate(t *testing.T) {
	v := Select(models.ImpactResult{CPU: 60, GPU: 0, RAM: 10}, 10)
	require.True(t, v.Agreement)

	agreed := Corroborate(v, SignalRemote, models.KindCPU)
	assert.True(t, agreed.Agreement)
	assert.Len(t, agreed.Signals, 3)

	disputed := Corroborate(v, SignalRemote, models.KindGPU)
	assert.False(t, disputed.Agreement)
	assert.Len(t, v.Signals, 2, "original verdict untouched")
}

// =============================================================================
// Recommendation Generator
// =============================================================================

func TestGenerate_BalancedIsEmpty(t *testing.T) {
	recs := Generate(models.BottleneckVerdict{}, models.ImpactResult{CPU: 3})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestGenerate_OrderFollowsImpact(t *testing.T) {
	impact := models.ImpactResult{CPU: 20, GPU: 55, RAM: 30}
	v := Select(impact, DefaultThreshold)
	require.Equal(t, models.KindGPU, v.Bottleneck)

	recs := Generate(v, impact)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "GPU")
	assert.Contains(t, recs[0], "severely")
	assert.Contains(t, recs[1], "RAM")
}

func TestGenerate_NoSecondaryBelowThreshold(t *testing.T) {
	impact := models.ImpactResult{CPU: 30, GPU: 5, RAM: 0}
	recs := Generate(Select(impact, DefaultThreshold), impact)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "CPU")
	assert.Contains(t, recs[0], "significantly")
}

// =============================================================================
// Engine
// =============================================================================

func TestEngine_Analyze(t *testing.T) {
	e := defaultEngine(t)
	res, err := e.Analyze(models.AnalysisRequest{
		CPU: "Intel Core i5-4460",
		GPU: "RTX 4090",
		RAM: "32GB DDR5-6000",
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindCPU, res.Verdict.Bottleneck)
	assert.Equal(t, "intel-core-i5-4460", res.Components[models.KindCPU].CanonicalID)
	require.NotEmpty(t, res.Recommendations)
	assert.Contains(t, res.Recommendations[0], "CPU")
}

func TestEngine_ReportsAllUnknownComponents(t *testing.T) {
	e := defaultEngine(t)
	_, err := e.Analyze(models.AnalysisRequest{CPU: "potato", GPU: "RTX 4090", RAM: "abacus"})

	var uc *UnknownComponentsError
	require.True(t, errors.As(err, &uc))
	require.Len(t, uc.Components, 2)
	assert.Equal(t, models.KindCPU, uc.Components[0].Kind)
	assert.Equal(t, models.KindRAM, uc.Components[1].Kind)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_WithThreshold(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	e := NewEngine(c, NewNormalizer(c), WithThreshold(50))

	res, err := e.Analyze(models.AnalysisRequest{CPU: "Ryzen 5 5600X", GPU: "RTX 4070", RAM: "16GB DDR4-3200"})
	require.NoError(t, err)
	assert.True(t, res.Verdict.Balanced())
	assert.Empty(t, res.Recommendations)
}
