package bottleneck

import (
	"errors"

	"rigcheck/internal/models"
)

// Engine runs normalize, lookup, estimate, select and generate for one request
type Engine struct {
	catalog    *Catalog
	normalizer *Normalizer
	threshold  float64
	margin     float64
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithThreshold overrides DefaultThreshold
func WithThreshold(t float64) EngineOption {
	return func(e *Engine) {
		if t >= 0 && t < 100 {
			e.threshold = t
		}
	}
}

// WithAgreementMargin overrides DefaultAgreementMargin
func WithAgreementMargin(m float64) EngineOption {
	return func(e *Engine) {
		if m >= 0 {
			e.margin = m
		}
	}
}

// NewEngine wires an engine to a catalog and normalizer
func NewEngine(catalog *Catalog, normalizer *Normalizer, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:    catalog,
		normalizer: normalizer,
		threshold:  DefaultThreshold,
		margin:     DefaultAgreementMargin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold is the significance threshold in use
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Catalog returns the reference table
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Resolve normalizes all three components. Every unknown name is reported
// together in one *UnknownComponentsError.
func (e *Engine) Resolve(req models.AnalysisRequest) (map[models.ComponentKind]models.CanonicalComponent, error) {
	resolved := make(map[models.ComponentKind]models.CanonicalComponent, len(models.Kinds))
	var unknown []*NotFoundError
	for _, spec := range req.Specs() {
		c, err := e.normalizer.Normalize(spec.RawName, spec.Kind)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				unknown = append(unknown, nf)
				continue
			}
			return nil, err
		}
		resolved[spec.Kind] = c
	}
	if len(unknown) > 0 {
		return nil, &UnknownComponentsError{Components: unknown}
	}
	return resolved, nil
}

// Analyze is Resolve followed by Evaluate
func (e *Engine) Analyze(req models.AnalysisRequest) (models.AnalysisResult, error) {
	components, err := e.Resolve(req)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return e.Evaluate(components), nil
}

// Evaluate scores already-resolved components
func (e *Engine) Evaluate(components map[models.ComponentKind]models.CanonicalComponent) models.AnalysisResult {
	cpu := e.rescore(components[models.KindCPU])
	gpu := e.rescore(components[models.KindGPU])
	ram := e.rescore(components[models.KindRAM])

	impact := Estimate(cpu, gpu, ram)
	verdict := SelectWithMargin(impact, e.threshold, e.margin)
	return models.AnalysisResult{
		Components: map[models.ComponentKind]models.CanonicalComponent{
			models.KindCPU: cpu,
			models.KindGPU: gpu,
			models.KindRAM: ram,
		},
		Impact:          impact,
		Verdict:         verdict,
		Recommendations: GenerateWithThreshold(verdict, impact, e.threshold),
	}
}

// Reconsider folds an outside opinion into a finished result and regenerates
// nothing else: impacts and recommendations stay local.
func (e *Engine) Reconsider(result models.AnalysisResult, signal string, other models.ComponentKind) models.AnalysisResult {
	result.Verdict = Corroborate(result.Verdict, signal, other)
	return result
}

// rescore takes the benchmark score from the reference table, never from the caller
func (e *Engine) rescore(c models.CanonicalComponent) models.CanonicalComponent {
	c.BenchmarkScore = e.catalog.Lookup(c.CanonicalID)
	return c
}
