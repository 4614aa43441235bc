package models

import (
	"encoding/json"
	"math"
)

// AnalysisRequest carries the three free-text component names
type AnalysisRequest struct {
	CPU string `json:"cpu" binding:"required" validate:"required,max=128"`
	GPU string `json:"gpu" binding:"required" validate:"required,max=128"`
	RAM string `json:"ram" binding:"required" validate:"required,max=128"`
}

// Specs expands the request into one ComponentSpec per kind
func (r AnalysisRequest) Specs() []ComponentSpec {
	return []ComponentSpec{
		{Kind: KindCPU, RawName: r.CPU},
		{Kind: KindGPU, RawName: r.GPU},
		{Kind: KindRAM, RawName: r.RAM},
	}
}

// ImpactResult holds each component's impact in [0,100].
// Values are computed independently and need not sum to 100.
type ImpactResult struct {
	CPU float64 `json:"CPU"`
	GPU float64 `json:"GPU"`
	RAM float64 `json:"RAM"`
}

// Get returns the impact for a kind
func (i ImpactResult) Get(kind ComponentKind) float64 {
	switch kind {
	case KindCPU:
		return i.CPU
	case KindGPU:
		return i.GPU
	case KindRAM:
		return i.RAM
	}
	return 0
}

// Max returns the largest impact value
func (i ImpactResult) Max() float64 {
	return math.Max(i.CPU, math.Max(i.GPU, i.RAM))
}

// MarshalJSON rounds to two decimals for display only
func (i ImpactResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{
		"CPU": round2(i.CPU),
		"GPU": round2(i.GPU),
		"RAM": round2(i.RAM),
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BottleneckVerdict is the selector's decision.
// Bottleneck is empty when the build is balanced.
type BottleneckVerdict struct {
	Bottleneck ComponentKind `json:"bottleneck"`
	Agreement  bool          `json:"agreement"`
	Signals    []Signal      `json:"signals,omitempty"`
}

// Balanced reports whether no component exceeded the threshold
func (v BottleneckVerdict) Balanced() bool {
	return v.Bottleneck == ""
}

// Signal is one independent opinion that feeds the agreement flag.
// The remote signal also carries what the predictor reported beside its verdict.
type Signal struct {
	Name       string        `json:"name"`
	Bottleneck ComponentKind `json:"bottleneck"`
	Concurs    bool          `json:"concurs"`

	Impact          *ImpactResult `json:"impact,omitempty"`
	Agreement       *bool         `json:"agreement,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// AnalysisResult aggregates everything produced for one request
type AnalysisResult struct {
	Components      map[ComponentKind]CanonicalComponent `json:"components"`
	Impact          ImpactResult                         `json:"-"`
	Verdict         BottleneckVerdict                    `json:"-"`
	Recommendations []string                             `json:"-"`
}

// analysisWire is the JSON shape consumed by the web front end
type analysisWire struct {
	Components map[ComponentKind]CanonicalComponent `json:"components"`
	Result     struct {
		HardwareAnalysis struct {
			Bottleneck      ComponentKind `json:"bottleneck"`
			EstimatedImpact ImpactResult  `json:"estimated_impact"`
		} `json:"hardware_analysis"`
		Agreement bool     `json:"agreement"`
		Signals   []Signal `json:"signals,omitempty"`
	} `json:"result"`
	Recommendations []string `json:"recommendations"`
}

func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	var w analysisWire
	w.Components = a.Components
	w.Result.HardwareAnalysis.Bottleneck = a.Verdict.Bottleneck
	w.Result.HardwareAnalysis.EstimatedImpact = a.Impact
	w.Result.Agreement = a.Verdict.Agreement
	w.Result.Signals = a.Verdict.Signals
	w.Recommendations = a.Recommendations
	if w.Recommendations == nil {
		w.Recommendations = []string{}
	}
	return json.Marshal(w)
}

func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	var w analysisWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.Components = w.Components
	a.Impact = w.Result.HardwareAnalysis.EstimatedImpact
	a.Verdict = BottleneckVerdict{
		Bottleneck: w.Result.HardwareAnalysis.Bottleneck,
		Agreement:  w.Result.Agreement,
		Signals:    w.Result.Signals,
	}
	a.Recommendations = w.Recommendations
	return nil
}
