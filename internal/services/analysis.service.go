package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"rigcheck/internal/bottleneck"
	"rigcheck/internal/models"
	"rigcheck/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rigcheck/services")

// AnalysisService runs the bottleneck engine for one request at a time.
// It keeps no per-request state; results go straight back to the caller.
type AnalysisService struct {
	engine    *bottleneck.Engine
	predictor Predictor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewAnalysisService wires the engine with an optional predictor and metrics
func NewAnalysisService(engine *bottleneck.Engine, predictor Predictor, metrics *observability.Metrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		engine:    engine,
		predictor: predictor,
		metrics:   metrics,
		logger:    logger.With("component", "analysis"),
	}
}

// Catalog exposes the reference table for browsing
func (s *AnalysisService) Catalog() *bottleneck.Catalog {
	return s.engine.Catalog()
}

// Analyze resolves and scores the request. Unknown names come back as
// *bottleneck.UnknownComponentsError. A failing predictor only drops the
// remote signal from the agreement flag.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "bottleneck.Analyze")
	defer span.End()

	components, err := s.engine.Resolve(req)
	if err != nil {
		var unknown *bottleneck.UnknownComponentsError
		if errors.As(err, &unknown) && s.metrics != nil {
			for _, c := range unknown.Components {
				s.metrics.UnknownComponentsTotal.WithLabelValues(c.Kind.Lower()).Inc()
			}
		}
		span.SetStatus(codes.Error, "unknown component")
		return models.AnalysisResult{}, err
	}

	result := s.engine.Evaluate(components)
	if s.predictor != nil {
		prediction, err := s.predictor.Predict(ctx, components)
		switch {
		case err != nil:
			s.logger.Warn("predictor unavailable, agreement uses local signals only", "error", err)
		case !prediction.Decoded:
			s.logger.Warn("predictor response had an unrecognised shape")
		default:
			result = s.engine.Reconsider(result, bottleneck.SignalRemote, prediction.Bottleneck)
			attachRemoteDetail(&result.Verdict, prediction)
		}
	}

	verdict := string(result.Verdict.Bottleneck)
	if result.Verdict.Balanced() {
		verdict = "balanced"
	}
	span.SetAttributes(
		attribute.String("bottleneck.verdict", verdict),
		attribute.Bool("bottleneck.agreement", result.Verdict.Agreement),
		attribute.String("bottleneck.cpu", components[models.KindCPU].CanonicalID),
		attribute.String("bottleneck.gpu", components[models.KindGPU].CanonicalID),
		attribute.String("bottleneck.ram", components[models.KindRAM].CanonicalID),
	)
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(verdict, strconv.FormatBool(result.Verdict.Agreement)).Inc()
		s.metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	}
	s.logger.Debug("analysis complete",
		"verdict", verdict,
		"agreement", result.Verdict.Agreement,
		"duration", time.Since(start))
	return result, nil
}

// attachRemoteDetail copies the predictor's own impact, agreement and advice
// onto the remote signal that Reconsider just appended.
func attachRemoteDetail(v *models.BottleneckVerdict, p *Prediction) {
	if len(v.Signals) == 0 {
		return
	}
	remote := &v.Signals[len(v.Signals)-1]
	remote.Impact = p.Impact
	remote.Agreement = p.Agreement
	if len(p.Recommendations) > 0 {
		remote.Recommendations = p.Recommendations
	}
}
