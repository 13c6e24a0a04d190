package guide

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "guias/internal/domain/guide"
	"guias/internal/ports"
)

func TestRegisterEntryVersionsDuplicates(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	first := registerFixture(t, svc, "Fruta")

	second, err := svc.RegisterEntry(ctx, RegisterEntryInput{ProviderCode: "123A", ProviderName: "Finca La Esperanza", BunchCount: "180", FruitType: "Fruta"})
	if err != nil {
		t.Fatalf("RegisterEntry(second) error = %v", err)
	}
	if second.GuideID != first+"_v1" || !second.Versioned {
		t.Fatalf("RegisterEntry(second) = %#v", second)
	}

	third, err := svc.RegisterEntry(ctx, RegisterEntryInput{ProviderCode: "123A", ProviderName: "Finca La Esperanza", BunchCount: "90", FruitType: "Fruta"})
	if err != nil {
		t.Fatalf("RegisterEntry(third) error = %v", err)
	}
	if third.GuideID != first+"_v2" {
		t.Fatalf("RegisterEntry(third) guide id = %q", third.GuideID)
	}

	original := mustResolve(t, svc, first)
	if original.Value(domain.FieldBunchCount) != "250" {
		t.Fatalf("original entry overwritten: cantidad_racimos = %q", original.Value(domain.FieldBunchCount))
	}
	if got := mustResolve(t, svc, second.GuideID); got.Value(domain.FieldBunchCount) != "180" {
		t.Fatalf("versioned entry cantidad_racimos = %q", got.Value(domain.FieldBunchCount))
	}
	if env.metrics.versioned != 2 {
		t.Fatalf("versioned metric = %d", env.metrics.versioned)
	}
}

func TestRegisterEntryExplicitIDOutsideWindow(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	input := RegisterEntryInput{GuideID: "321C_20231231_170000", ProviderCode: "321C", ProviderName: "Palmas del Sur", BunchCount: "40", FruitType: "Fruta"}
	if _, err := svc.RegisterEntry(ctx, input); err != nil {
		t.Fatalf("RegisterEntry() error = %v", err)
	}

	env.advance(2 * time.Hour)
	res, err := svc.RegisterEntry(ctx, input)
	if err != nil {
		t.Fatalf("RegisterEntry(repeat) error = %v", err)
	}
	if res.GuideID != "321C_20231231_170000_v1" {
		t.Fatalf("RegisterEntry(repeat) guide id = %q", res.GuideID)
	}
}

func TestRegisterEntryValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	cases := []RegisterEntryInput{
		{ProviderName: "Sin codigo", BunchCount: "10", FruitType: "Fruta"},
		{ProviderCode: "123A", ProviderName: "Finca", BunchCount: "muchos", FruitType: "Fruta"},
		{ProviderCode: "123A", ProviderName: "Finca", BunchCount: "10"},
		{ProviderCode: "12/3", ProviderName: "Finca", BunchCount: "10", FruitType: "Fruta"},
	}
	for i, input := range cases {
		if _, err := svc.RegisterEntry(ctx, input); err == nil {
			t.Fatalf("RegisterEntry(case %d) expected error", i)
		}
	}
}

func TestRecordStageValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	guideID := registerFixture(t, svc, "Fruta")

	if err := svc.RecordGrossWeighing(ctx, GrossWeighingInput{GuideID: guideID}); !errors.Is(err, errWeightRequired) {
		t.Fatalf("RecordGrossWeighing(zero) error = %v", err)
	}
	if err := svc.RecordGrossWeighing(ctx, GrossWeighingInput{GuideID: guideID, GrossWeight: decimal.NewFromInt(100), Method: "bascula"}); err == nil {
		t.Fatalf("RecordGrossWeighing(bad method) expected error")
	}
	if err := svc.RecordClassification(ctx, ClassificationInput{GuideID: guideID}); err == nil {
		t.Fatalf("RecordClassification(empty) expected error")
	}
	if err := svc.RecordClassification(ctx, ClassificationInput{GuideID: guideID, Manual: domain.DefectCounts{"manchados": 1}}); err == nil {
		t.Fatalf("RecordClassification(unknown defect) expected error")
	}
	if err := svc.RecordExit(ctx, ExitInput{GuideID: "a/b"}); !errors.Is(err, domain.ErrInvalidGuideID) {
		t.Fatalf("RecordExit(invalid id) error = %v", err)
	}

	if err := svc.RecordGrossWeighing(ctx, GrossWeighingInput{GuideID: guideID, GrossWeight: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("RecordGrossWeighing() error = %v", err)
	}
	err := svc.RecordNetWeighing(ctx, NetWeighingInput{GuideID: guideID, TareWeight: decimal.NewNullDecimal(decimal.NewFromInt(2000))})
	if !errors.Is(err, errNegativeNetWeight) {
		t.Fatalf("RecordNetWeighing(tare > gross) error = %v", err)
	}
	if err := svc.RecordNetWeighing(ctx, NetWeighingInput{GuideID: guideID}); err == nil {
		t.Fatalf("RecordNetWeighing(no weights) expected error")
	}
}

func TestRecordNetWeighingWithoutGross(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	guideID := registerFixture(t, svc, "Fruta")

	if err := svc.RecordNetWeighing(ctx, NetWeighingInput{GuideID: guideID, TareWeight: decimal.NewNullDecimal(decimal.NewFromInt(6500))}); err != nil {
		t.Fatalf("RecordNetWeighing() error = %v", err)
	}
	rec, err := env.stores.NetWeighing.Get(ctx, guideID)
	if err != nil {
		t.Fatalf("NetWeighing.Get() error = %v", err)
	}
	if rec.NetWeight.Valid {
		t.Fatalf("net weight derived without gross: %s", rec.NetWeight.Decimal)
	}

	got := mustResolve(t, svc, guideID)
	if got.State != domain.StateEntryRegistered {
		t.Fatalf("Resolve() state = %q", got.State)
	}
	if len(got.Anomalies) != 2 {
		t.Fatalf("Anomalies = %#v", got.Anomalies)
	}
}

func TestMigrateLegacyEntriesIsIdempotent(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	registered := registerFixture(t, svc, "Fruta")
	env.legacy.records[registered] = ports.EntryRecord{GuideID: registered, ProviderCode: "123A", BunchCount: "1", Active: true}
	env.legacy.records["777B_20230505_080000"] = ports.EntryRecord{GuideID: "777B_20230505_080000", ProviderCode: "777B", BunchCount: "80", FruitType: "Fruta", CreatedAtUTC: "2023-05-05 13:00:00", Active: true}
	env.legacy.unreadable = []string{"000X_20230101_000000"}

	report, err := svc.MigrateLegacyEntries(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyEntries() error = %v", err)
	}
	want := MigrationReport{Scanned: 3, Inserted: 1, Skipped: 1, Failed: 1}
	if report != want {
		t.Fatalf("MigrateLegacyEntries() = %#v, want %#v", report, want)
	}

	report, err = svc.MigrateLegacyEntries(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyEntries(second) error = %v", err)
	}
	want = MigrationReport{Scanned: 3, Inserted: 0, Skipped: 2, Failed: 1}
	if report != want {
		t.Fatalf("MigrateLegacyEntries(second) = %#v, want %#v", report, want)
	}

	got := mustResolve(t, svc, "777B_20230505_080000")
	if got.Source != ports.EntrySourceTable || got.Value(domain.FieldBunchCount) != "80" {
		t.Fatalf("migrated entry = %#v", got)
	}
	if got := mustResolve(t, svc, registered); got.Value(domain.FieldBunchCount) != "250" {
		t.Fatalf("table entry overwritten by migration: %q", got.Value(domain.FieldBunchCount))
	}
	if env.metrics.migrated[MigrationSkipped] != 3 {
		t.Fatalf("migration metrics = %#v", env.metrics.migrated)
	}
}

func TestCorrectEntryRequiresAuthorizationCode(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	guideID := registerFixture(t, svc, "Fruta")

	if _, _, err := svc.IssueAuthorizationCode(ctx, "404Z_20240101_000000"); !errors.Is(err, domain.ErrGuideNotFound) {
		t.Fatalf("IssueAuthorizationCode(unknown) error = %v", err)
	}

	code, expiresAt, err := svc.IssueAuthorizationCode(ctx, guideID)
	if err != nil {
		t.Fatalf("IssueAuthorizationCode() error = %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("IssueAuthorizationCode() code = %q", code)
	}
	if !expiresAt.Equal(env.now.Add(15 * time.Minute)) {
		t.Fatalf("IssueAuthorizationCode() expiresAt = %v", expiresAt)
	}

	wrong := []byte(code)
	wrong[0] = '0' + (wrong[0]-'0'+1)%10
	name := "Finca Nueva"
	plate := "xyz789"
	changes := EntryChanges{ProviderName: &name, Plate: &plate}

	if _, err := svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: guideID, Code: string(wrong), Changes: changes}); !errors.Is(err, domain.ErrAuthorizationDenied) {
		t.Fatalf("CorrectEntry(wrong code) error = %v", err)
	}
	if _, err := svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: guideID, Code: "12ab", Changes: changes}); err == nil {
		t.Fatalf("CorrectEntry(malformed code) expected error")
	}

	updated, err := svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: guideID, Code: code, Changes: changes})
	if err != nil {
		t.Fatalf("CorrectEntry() error = %v", err)
	}
	if updated.ProviderName != name || updated.Plate != "XYZ789" || updated.BunchCount != "250" {
		t.Fatalf("CorrectEntry() = %#v", updated)
	}

	if _, err := svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: guideID, Code: code, Changes: changes}); !errors.Is(err, domain.ErrAuthorizationDenied) {
		t.Fatalf("CorrectEntry(reused code) error = %v", err)
	}

	got := mustResolve(t, svc, guideID)
	if got.Value(domain.FieldProviderName) != name {
		t.Fatalf("nombre_proveedor = %q", got.Value(domain.FieldProviderName))
	}
}

func TestSetEntryActiveAndListing(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	first := registerFixture(t, svc, "Fruta")

	env.advance(24 * time.Hour)
	second, err := svc.RegisterEntry(ctx, RegisterEntryInput{ProviderCode: "456B", ProviderName: "Hacienda El Roble", Plate: "KLM321", BunchCount: "60", FruitType: "Fruta"})
	if err != nil {
		t.Fatalf("RegisterEntry() error = %v", err)
	}
	if err := svc.RecordGrossWeighing(ctx, GrossWeighingInput{GuideID: second.GuideID, GrossWeight: decimal.NewFromInt(7000)}); err != nil {
		t.Fatalf("RecordGrossWeighing() error = %v", err)
	}

	all, err := svc.ListGuides(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListGuides() error = %v", err)
	}
	if len(all) != 2 || all[0].GuideID != second.GuideID || all[1].GuideID != first {
		t.Fatalf("ListGuides() order = %v", guideIDs(all))
	}

	day, err := svc.ListGuides(ctx, ListFilter{DateFrom: "2024-01-01", DateTo: "2024-01-01"})
	if err != nil {
		t.Fatalf("ListGuides(day) error = %v", err)
	}
	if len(day) != 1 || day[0].GuideID != first {
		t.Fatalf("ListGuides(day) = %v", guideIDs(day))
	}

	weighed, err := svc.ListGuides(ctx, ListFilter{Stage: domain.StageGrossWeighing})
	if err != nil {
		t.Fatalf("ListGuides(pesaje) error = %v", err)
	}
	if len(weighed) != 1 || weighed[0].State != domain.StateGrossWeighed {
		t.Fatalf("ListGuides(pesaje) = %v", guideIDs(weighed))
	}

	byName, err := svc.ListGuides(ctx, ListFilter{ProviderName: "roble"})
	if err != nil {
		t.Fatalf("ListGuides(name) error = %v", err)
	}
	if len(byName) != 1 || byName[0].GuideID != second.GuideID {
		t.Fatalf("ListGuides(name) = %v", guideIDs(byName))
	}

	if _, err := svc.ListGuides(ctx, ListFilter{DateFrom: "01/01/2024"}); err == nil {
		t.Fatalf("ListGuides(bad date) expected error")
	}

	if err := svc.SetEntryActive(ctx, first, false); err != nil {
		t.Fatalf("SetEntryActive() error = %v", err)
	}
	active, err := svc.ListGuides(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListGuides(active) error = %v", err)
	}
	if len(active) != 1 || active[0].GuideID != second.GuideID {
		t.Fatalf("ListGuides(active) = %v", guideIDs(active))
	}
	withInactive, err := svc.ListGuides(ctx, ListFilter{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListGuides(include inactive) error = %v", err)
	}
	if len(withInactive) != 2 {
		t.Fatalf("ListGuides(include inactive) = %v", guideIDs(withInactive))
	}

	entries, err := svc.ProviderEntries(ctx, "123A")
	if err != nil {
		t.Fatalf("ProviderEntries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ProviderEntries() = %#v, want only active entries", entries)
	}
	if _, err := svc.LatestProviderEntry(ctx, "123A"); !errors.Is(err, domain.ErrGuideNotFound) {
		t.Fatalf("LatestProviderEntry(inactive) error = %v", err)
	}
	latest, err := svc.LatestProviderEntry(ctx, "456B")
	if err != nil || latest.GuideID != second.GuideID {
		t.Fatalf("LatestProviderEntry() = %#v, %v", latest, err)
	}

	if got := mustResolve(t, svc, first); got.Fields["is_active"] != "false" {
		t.Fatalf("inactive entry is_active = %q", got.Fields["is_active"])
	}

	var notFound *domain.NotFoundError
	if err := svc.SetEntryActive(ctx, "999Z_20240101_000000", true); !errors.As(err, &notFound) {
		t.Fatalf("SetEntryActive(unknown) error = %v", err)
	}
}

func TestCorrectEntryKeepsCodeWhenEntryMissing(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	guideID := registerFixture(t, svc, "Fruta")

	code, _, err := svc.IssueAuthorizationCode(ctx, guideID)
	if err != nil {
		t.Fatalf("IssueAuthorizationCode() error = %v", err)
	}
	if err := env.db.Exec("DELETE FROM entradas WHERE codigo_guia = ?", guideID).Error; err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	name := "Finca Nueva"
	_, err = svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: guideID, Code: code, Changes: EntryChanges{ProviderName: &name}})
	if !errors.Is(err, domain.ErrGuideNotFound) {
		t.Fatalf("CorrectEntry(missing entry) error = %v", err)
	}
	if stored, ok, _ := env.cache.Get(ctx, "auth_code:"+guideID); !ok || stored != code {
		t.Fatalf("authorization code consumed without an entry: %q, %v", stored, ok)
	}

	if _, err := svc.CorrectEntry(ctx, CorrectEntryInput{GuideID: "../etc", Code: code, Changes: EntryChanges{ProviderName: &name}}); !errors.Is(err, domain.ErrInvalidGuideID) {
		t.Fatalf("CorrectEntry(invalid id) error = %v", err)
	}
}

func TestListGuidesIncludesLegacyOnlyEntries(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	registered := registerFixture(t, svc, "Fruta")

	env.legacy.records[registered] = ports.EntryRecord{GuideID: registered, ProviderCode: "123A", CreatedAtUTC: "2020-01-01 00:00:00", Active: true}
	env.legacy.records["777B_20230505_080000"] = ports.EntryRecord{
		GuideID:      "777B_20230505_080000",
		ProviderCode: "777B",
		ProviderName: "Finca El Porvenir",
		Plate:        "QWE456",
		BunchCount:   "80",
		FruitType:    "Fruta",
		CreatedAtUTC: "2023-05-05 13:00:00",
		Active:       true,
	}
	env.legacy.records["888C_20240101_070000"] = ports.EntryRecord{
		GuideID:      "888C_20240101_070000",
		ProviderCode: "888C",
		CreatedAtUTC: "2024-01-01T12:00:00Z",
		Active:       false,
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{name: "all active", filter: ListFilter{}, want: []string{registered, "777B_20230505_080000"}},
		{name: "provider code", filter: ListFilter{ProviderCode: "777"}, want: []string{"777B_20230505_080000"}},
		{name: "plate", filter: ListFilter{Plate: "qwe"}, want: []string{"777B_20230505_080000"}},
		{name: "include inactive", filter: ListFilter{IncludeInactive: true}, want: []string{registered, "888C_20240101_070000", "777B_20230505_080000"}},
		{name: "local day", filter: ListFilter{DateFrom: "2023-05-05", DateTo: "2023-05-05"}, want: []string{"777B_20230505_080000"}},
		{name: "limit", filter: ListFilter{Limit: 1}, want: []string{registered}},
		{name: "other stage", filter: ListFilter{Stage: domain.StageGrossWeighing}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ListGuides(ctx, tc.filter)
			if err != nil {
				t.Fatalf("ListGuides() error = %v", err)
			}
			ids := guideIDs(got)
			if strings.Join(ids, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("ListGuides() = %v, want %v", ids, tc.want)
			}
		})
	}

	listed, err := svc.ListGuides(ctx, ListFilter{ProviderCode: "777B"})
	if err != nil || len(listed) != 1 || listed[0].Source != ports.EntrySourceLegacy {
		t.Fatalf("ListGuides(legacy) = %#v, %v", listed, err)
	}
}

func TestServiceRejectsCanceledContext(t *testing.T) {
	svc, _ := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Resolve(ctx, "123A_20240101_090000"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve(canceled) error = %v", err)
	}
	if _, err := svc.ListGuides(ctx, ListFilter{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListGuides(canceled) error = %v", err)
	}
}

func guideIDs(items []ConsolidatedGuide) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.GuideID)
	}
	return out
}
