package services

import (
	"testing"

	"rigcheck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrediction_Shapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		decoded bool
		kind    models.ComponentKind
		recs    []string
	}{
		{
			name:    "object with plural recommendations",
			payload: `{"result":{"hardware_analysis":{"bottleneck":"CPU","estimated_impact":{"CPU":40,"GPU":0,"RAM":5}},"agreement":true},"recommendations":["upgrade cpu"]}`,
			decoded: true, kind: models.KindCPU, recs: []string{"upgrade cpu"},
		},
		{
			name:    "array envelope with singular misspelled key",
			payload: `[{"result":{"hardware_analysis":{"bottleneck":"gpu"}},"recomendation":["a","b"]}]`,
			decoded: true, kind: models.KindGPU, recs: []string{"a", "b"},
		},
		{
			name:    "recommendation as one string inside result",
			payload: `{"result":{"hardware_analysis":{"bottleneck":"RAM"},"recomendation":"add memory"}}`,
			decoded: true, kind: models.KindRAM, recs: []string{"add memory"},
		},
		{
			name:    "top level hardware analysis, balanced",
			payload: `{"hardware_analysis":{"bottleneck":""}}`,
			decoded: true, kind: "", recs: []string{},
		},
		{
			name:    "null bottleneck",
			payload: `{"result":{"hardware_analysis":{"bottleneck":null}}}`,
			decoded: true, kind: "", recs: []string{},
		},
		{
			name:    "non-string items dropped",
			payload: `{"result":{"hardware_analysis":{"bottleneck":"CPU"}},"recommendations":["x",3,{"y":1},""]}`,
			decoded: true, kind: models.KindCPU, recs: []string{"x"},
		},
		{name: "empty array", payload: `[]`},
		{name: "array of strings", payload: `["CPU"]`},
		{name: "bare string", payload: `"CPU"`},
		{name: "not json", payload: `<html>502</html>`},
		{name: "unknown label", payload: `{"result":{"hardware_analysis":{"bottleneck":"PSU"}}}`},
		{name: "label wrong type", payload: `{"result":{"hardware_analysis":{"bottleneck":7}}}`},
		{name: "no hardware analysis", payload: `{"recommendations":["x"]}`, recs: []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ParsePrediction([]byte(tc.payload))
			assert.Equal(t, tc.decoded, p.Decoded)
			if tc.decoded {
				assert.Equal(t, tc.kind, p.Bottleneck)
			}
			if tc.recs != nil {
				assert.Equal(t, tc.recs, p.Recommendations)
			}
		})
	}
}

func TestParsePrediction_ImpactAndAgreement(t *testing.T) {
	p := ParsePrediction([]byte(`{"result":{"hardware_analysis":{"bottleneck":"CPU","estimated_impact":{"CPU":40.5,"GPU":0,"RAM":12}},"agreement":false}}`))
	require.True(t, p.Decoded)
	require.NotNil(t, p.Impact)
	assert.Equal(t, 40.5, p.Impact.CPU)
	assert.Equal(t, 12.0, p.Impact.RAM)
	require.NotNil(t, p.Agreement)
	assert.False(t, *p.Agreement)
}
