package bottleneck

import (
	"fmt"

	"rigcheck/internal/models"
)

var upgradeAdvice = map[models.ComponentKind]string{
	models.KindCPU: "a processor with stronger single-thread and multi-core performance",
	models.KindGPU: "a faster graphics card, which will raise frame rates the most in games",
	models.KindRAM: "a larger or faster memory kit (more capacity or a higher transfer rate)",
}

func severity(impact float64) string {
	switch {
	case impact >= 50:
		return "severely"
	case impact >= 25:
		return "significantly"
	default:
		return "moderately"
	}
}

// Generate builds suggestions using DefaultThreshold for the secondary cut-off
func Generate(verdict models.BottleneckVerdict, impact models.ImpactResult) []string {
	return GenerateWithThreshold(verdict, impact, DefaultThreshold)
}

// GenerateWithThreshold returns nothing for a balanced build. Otherwise the
// first suggestion names the bottleneck; a second one follows for the
// runner-up when its impact also exceeds threshold.
func GenerateWithThreshold(verdict models.BottleneckVerdict, impact models.ImpactResult, threshold float64) []string {
	if verdict.Balanced() {
		return []string{}
	}

	primary := impact.Get(verdict.Bottleneck)
	out := []string{
		fmt.Sprintf("Your %s is %s limiting this build (estimated impact %.1f%%). Consider upgrading to %s.",
			verdict.Bottleneck, severity(primary), primary, upgradeAdvice[verdict.Bottleneck]),
	}

	for _, ki := range Rank(impact) {
		if ki.Kind == verdict.Bottleneck {
			continue
		}
		if ki.Impact > threshold {
			out = append(out, fmt.Sprintf("Your %s is also holding the system back (estimated impact %.1f%%). After the %s, look at %s.",
				ki.Kind, ki.Impact, verdict.Bottleneck, upgradeAdvice[ki.Kind]))
		}
		break
	}
	return out
}
