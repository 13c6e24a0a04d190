package guide

import "testing"

func TestClassifyPriorityChain(t *testing.T) {
	cases := []struct {
		name          string
		in            Snapshot
		wantState     State
		wantCompleted bool
	}{
		{name: "entry only", in: Snapshot{}, wantState: StateEntryRegistered},
		{name: "gross record without weight", in: Snapshot{HasGrossRecord: true}, wantState: StateEntryRegistered},
		{name: "gross", in: Snapshot{HasGrossRecord: true, HasGrossWeight: true}, wantState: StateGrossWeighed},
		{name: "empty classification", in: Snapshot{HasGrossRecord: true, HasGrossWeight: true, HasClassificationRecord: true}, wantState: StateGrossWeighed},
		{name: "classified", in: Snapshot{HasGrossWeight: true, HasClassificationRecord: true, HasClassificationPayload: true}, wantState: StateClassified},
		{name: "pepa weighed", in: Snapshot{HasGrossRecord: true, HasGrossWeight: true, IsPepa: true}, wantState: StateClassified},
		{name: "pepa not weighed", in: Snapshot{IsPepa: true}, wantState: StateEntryRegistered},
		{name: "net", in: Snapshot{HasGrossWeight: true, HasNetRecord: true, HasNetWeight: true}, wantState: StateNetWeighed},
		{name: "exit skips everything", in: Snapshot{HasExit: true}, wantState: StateClosed, wantCompleted: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, completed := Classify(tc.in)
			if state != tc.wantState || completed != tc.wantCompleted {
				t.Fatalf("Classify() = (%q,%v), want (%q,%v)", state, completed, tc.wantState, tc.wantCompleted)
			}
		})
	}
}

func TestAnomalies(t *testing.T) {
	got := Anomalies(Snapshot{HasExit: true})
	if len(got) != 1 || got[0] != "salida registrada sin pesaje neto" {
		t.Fatalf("Anomalies() = %#v", got)
	}

	got = Anomalies(Snapshot{HasNetRecord: true, HasNetWeight: true})
	if len(got) != 2 {
		t.Fatalf("Anomalies() = %#v, want net-without-gross and net-without-classification", got)
	}

	if got := Anomalies(Snapshot{HasGrossRecord: true, HasGrossWeight: true, IsPepa: true, HasNetRecord: true, HasNetWeight: true}); len(got) != 0 {
		t.Fatalf("Anomalies() for pepa flow = %#v, want none", got)
	}
}

func TestIsPepa(t *testing.T) {
	for _, in := range []string{"pepa", " PEPA ", "Pepa\n"} {
		if !IsPepa(in) {
			t.Fatalf("IsPepa(%q) = false", in)
		}
	}
	for _, in := range []string{"", "Fruta", "pepas"} {
		if IsPepa(in) {
			t.Fatalf("IsPepa(%q) = true", in)
		}
	}
}
