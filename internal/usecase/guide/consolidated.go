package guide

import (
	"encoding/json"

	domain "guias/internal/domain/guide"
	"guias/internal/ports"
)

// Keys added to the consolidated mapping next to the merged stage fields.
const (
	KeyState     = "estado"
	KeyIsPepa    = "is_pepa"
	KeyCompleted = "completed"
	KeyAnomalies = "anomalias"
	KeySource    = "origen_registro"
)

// ConsolidatedGuide is the merged, canonical view of one guide. It is derived on every read.
type ConsolidatedGuide struct {
	GuideID   string
	Fields    domain.Record
	State     domain.State
	IsPepa    bool
	Completed bool
	Anomalies []string
	Source    ports.EntrySource
}

// Map flattens the guide for JSON and YAML consumers.
func (g ConsolidatedGuide) Map() map[string]any {
	out := make(map[string]any, len(g.Fields)+5)
	for key, value := range g.Fields {
		out[key] = value
	}
	out[KeyState] = string(g.State)
	out[KeyIsPepa] = g.IsPepa
	out[KeyCompleted] = g.Completed
	anomalies := g.Anomalies
	if anomalies == nil {
		anomalies = []string{}
	}
	out[KeyAnomalies] = anomalies
	out[KeySource] = string(g.Source)
	return out
}

func (g ConsolidatedGuide) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Map())
}

func (g ConsolidatedGuide) MarshalYAML() (any, error) {
	return g.Map(), nil
}

// Value returns a field or the not-available sentinel.
func (g ConsolidatedGuide) Value(key string) string {
	return g.Fields.Value(key)
}
