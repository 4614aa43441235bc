package bottleneck

import (
	"math"

	"rigcheck/internal/models"
)

// Estimate computes each component's deficit against the strongest of the three,
// scaled to [0,100]. Components tied with the best score have impact 0.
func Estimate(cpu, gpu, ram models.CanonicalComponent) models.ImpactResult {
	best := math.Max(cpu.BenchmarkScore, math.Max(gpu.BenchmarkScore, ram.BenchmarkScore))
	return models.ImpactResult{
		CPU: deficit(best, cpu.BenchmarkScore),
		GPU: deficit(best, gpu.BenchmarkScore),
		RAM: deficit(best, ram.BenchmarkScore),
	}
}

func deficit(best, score float64) float64 {
	if best <= 0 {
		return 0
	}
	v := (best - score) / best * 100
	return math.Min(100, math.Max(0, v))
}
