package ports

// GuideMetrics receives resolver, guard and migration outcomes.
type GuideMetrics interface {
	GuideResolved(state string)
	GuideNotFound()
	StageUnavailable(stage string)
	LegacyFallback()
	DuplicateVersioned()
	LegacyMigrated(result string)
}

type NopGuideMetrics struct{}

func (NopGuideMetrics) GuideResolved(string)    {}
func (NopGuideMetrics) GuideNotFound()          {}
func (NopGuideMetrics) StageUnavailable(string) {}
func (NopGuideMetrics) LegacyFallback()         {}
func (NopGuideMetrics) DuplicateVersioned()     {}
func (NopGuideMetrics) LegacyMigrated(string)   {}
