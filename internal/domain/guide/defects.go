package guide

import "fmt"

// Defect categories counted during classification.
const (
	DefectGreen        = "verdes"
	DefectOverripe     = "sobremaduros"
	DefectCrownDamage  = "danio_corona"
	DefectLongPeduncle = "pedunculo_largo"
	DefectRotten       = "podridos"
)

var DefectCategories = []string{
	DefectGreen,
	DefectOverripe,
	DefectCrownDamage,
	DefectLongPeduncle,
	DefectRotten,
}

// DefectCounts holds the bunch count per defect category. An empty map means no payload.
type DefectCounts map[string]int

func (d DefectCounts) Empty() bool {
	return len(d) == 0
}

func (d DefectCounts) Validate() error {
	for key, count := range d {
		if !isDefectCategory(key) {
			return fmt.Errorf("unknown defect category %q", key)
		}
		if count < 0 {
			return fmt.Errorf("negative count for %q", key)
		}
	}
	return nil
}

func isDefectCategory(key string) bool {
	for _, category := range DefectCategories {
		if category == key {
			return true
		}
	}
	return false
}
