package guide

import "strings"

// Snapshot is the presence summary of a guide's stage records.
type Snapshot struct {
	HasGrossRecord           bool
	HasGrossWeight           bool
	HasClassificationRecord  bool
	HasClassificationPayload bool
	HasNetRecord             bool
	HasNetWeight             bool
	HasExit                  bool
	IsPepa                   bool
}

// ClassificationSatisfied is true when the classification stage counts as done.
// Pepa guides skip classification only once they have a gross weight: a pepa entry that has
// not been weighed stays at StateEntryRegistered instead of jumping to StateClassified.
func (s Snapshot) ClassificationSatisfied() bool {
	return s.HasClassificationPayload || (s.IsPepa && s.HasGrossWeight)
}

// Classify returns the most advanced completed stage. First match wins.
func Classify(s Snapshot) (State, bool) {
	switch {
	case s.HasExit:
		return StateClosed, true
	case s.HasNetWeight:
		return StateNetWeighed, false
	case s.ClassificationSatisfied():
		return StateClassified, false
	case s.HasGrossWeight:
		return StateGrossWeighed, false
	default:
		return StateEntryRegistered, false
	}
}

// Anomalies describes later-stage records whose predecessors are missing.
func Anomalies(s Snapshot) []string {
	var out []string
	if s.HasGrossRecord && !s.HasGrossWeight {
		out = append(out, "pesaje bruto registrado sin peso")
	}
	if s.HasClassificationRecord && !s.HasGrossRecord && !s.IsPepa {
		out = append(out, "clasificación registrada sin pesaje bruto")
	}
	if s.HasNetRecord && !s.HasGrossRecord {
		out = append(out, "pesaje neto registrado sin pesaje bruto")
	}
	if s.HasNetRecord && !s.ClassificationSatisfied() {
		out = append(out, "pesaje neto registrado sin clasificación")
	}
	if s.HasExit && !s.HasNetRecord {
		out = append(out, "salida registrada sin pesaje neto")
	}
	return out
}

// IsPepa applies the pepa rule to an entry's fruit type.
func IsPepa(fruitType string) bool {
	return strings.ToUpper(strings.TrimSpace(fruitType)) == "PEPA"
}
