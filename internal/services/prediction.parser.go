package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"rigcheck/internal/models"
)

// Prediction is the normalized answer of a remote predictor
type Prediction struct {
	// Decoded is false when the payload matched no known shape
	Decoded         bool
	Bottleneck      models.ComponentKind
	Impact          *models.ImpactResult
	Agreement       *bool
	Recommendations []string
}

type jsonShape int

const (
	shapeInvalid jsonShape = iota
	shapeNull
	shapeObject
	shapeArray
	shapeString
	shapeBool
	shapeNumber
)

func shapeOf(raw json.RawMessage) jsonShape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeInvalid
	}
	switch trimmed[0] {
	case '{':
		return shapeObject
	case '[':
		return shapeArray
	case '"':
		return shapeString
	case 't', 'f':
		return shapeBool
	case 'n':
		return shapeNull
	}
	if trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9') {
		return shapeNumber
	}
	return shapeInvalid
}

// ParsePrediction decodes a predictor payload.
//
// Accepted envelopes: an object, or an array whose first element is an object.
// Analysis fields are read from "result" and fall back to the top level.
// Recommendations may be keyed "recommendations" or "recomendation" and hold
// an array of strings or one string. Anything else yields Decoded == false.
func ParsePrediction(data []byte) Prediction {
	envelope, ok := envelopeOf(json.RawMessage(data))
	if !ok {
		return Prediction{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &fields); err != nil {
		return Prediction{}
	}

	analysis := fields
	if raw, ok := fields["result"]; ok && shapeOf(raw) == shapeObject {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err == nil {
			analysis = inner
		}
	}

	var p Prediction
	hardware, hasHardware := objectField(analysis, "hardware_analysis")
	if !hasHardware {
		hardware, hasHardware = objectField(fields, "hardware_analysis")
	}
	if hasHardware {
		label, ok := bottleneckLabel(hardware["bottleneck"])
		if !ok {
			return Prediction{}
		}
		p.Bottleneck = label
		if raw, ok := hardware["estimated_impact"]; ok && shapeOf(raw) == shapeObject {
			var impact models.ImpactResult
			if err := json.Unmarshal(raw, &impact); err == nil {
				p.Impact = &impact
			}
		}
	}

	if raw, ok := firstField(analysis, fields, "agreement"); ok && shapeOf(raw) == shapeBool {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			p.Agreement = &b
		}
	}

	p.Recommendations = []string{}
	for _, key := range []string{"recommendations", "recomendation", "recommendation"} {
		raw, ok := firstField(fields, analysis, key)
		if !ok {
			continue
		}
		p.Recommendations = stringList(raw)
		break
	}

	p.Decoded = hasHardware
	return p
}

func envelopeOf(raw json.RawMessage) (json.RawMessage, bool) {
	switch shapeOf(raw) {
	case shapeObject:
		return raw, true
	case shapeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return nil, false
		}
		if shapeOf(items[0]) == shapeObject {
			return items[0], true
		}
	}
	return nil, false
}

func objectField(fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || shapeOf(raw) != shapeObject {
		return nil, false
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func firstField(primary, fallback map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if raw, ok := primary[key]; ok {
		return raw, true
	}
	raw, ok := fallback[key]
	return raw, ok
}

// bottleneckLabel accepts a kind name in any case, or null/""/"none"/"balanced" for no bottleneck
func bottleneckLabel(raw json.RawMessage) (models.ComponentKind, bool) {
	switch shapeOf(raw) {
	case shapeInvalid, shapeNull:
		return "", true
	case shapeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "none", "balanced":
			return "", true
		}
		kind, err := models.ParseKind(s)
		if err != nil {
			return "", false
		}
		return kind, true
	}
	return "", false
}

func stringList(raw json.RawMessage) []string {
	switch shapeOf(raw) {
	case shapeString:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return []string{s}
		}
	case shapeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []string{}
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if shapeOf(item) != shapeString {
				continue
			}
			var s string
			if err := json.Unmarshal(item, &s); err == nil && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
