package models

import (
	"fmt"
	"strings"
)

// ComponentKind identifies which slot of a build a component occupies
type ComponentKind string

const (
	KindCPU ComponentKind = "CPU"
	KindGPU ComponentKind = "GPU"
	KindRAM ComponentKind = "RAM"
)

// Kinds lists every kind in tie-break priority order (CPU > GPU > RAM)
var Kinds = []ComponentKind{KindCPU, KindGPU, KindRAM}

// ParseKind accepts "cpu", "GPU", " ram " and friends
func ParseKind(s string) (ComponentKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CPU":
		return KindCPU, nil
	case "GPU":
		return KindGPU, nil
	case "RAM", "MEMORY":
		return KindRAM, nil
	}
	return "", fmt.Errorf("unknown component kind %q", s)
}

// Lower returns the lowercase form used in catalog files and metric labels
func (k ComponentKind) Lower() string {
	return strings.ToLower(string(k))
}

// ComponentSpec is user-supplied, unvalidated component text
type ComponentSpec struct {
	Kind    ComponentKind `json:"kind"`
	RawName string        `json:"raw_name"`
}

// CanonicalComponent is a component resolved against the reference table
type CanonicalComponent struct {
	Kind           ComponentKind `json:"kind"`
	CanonicalID    string        `json:"canonical_id"`
	Name           string        `json:"name"`
	BenchmarkScore float64       `json:"benchmark_score"`
}

// CatalogEntry is one row of the benchmark reference table
type CatalogEntry struct {
	ID      string        `json:"id" yaml:"id"`
	Kind    ComponentKind `json:"kind" yaml:"-"`
	Name    string        `json:"name" yaml:"name"`
	Aliases []string      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Score   float64       `json:"score" yaml:"score"`
}
