package guide

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const guideTimestampLayout = "20060102_150405"

var (
	guideIDPattern      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	providerCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	versionSuffix       = regexp.MustCompile(`_v(\d+)$`)
)

// ValidateGuideID rejects ids that could not have been produced by NewGuideID-like producers.
// Legacy file paths derive from the id, so separators are never allowed.
func ValidateGuideID(id string) error {
	if !guideIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidGuideID, id)
	}
	return nil
}

// NewGuideID builds "{provider_code}_{YYYYMMDD_HHMMSS}" from the display-local creation time.
func NewGuideID(providerCode string, createdLocal time.Time) (string, error) {
	code := strings.TrimSpace(providerCode)
	if !providerCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: provider code %q", ErrInvalidGuideID, providerCode)
	}
	return code + "_" + createdLocal.Format(guideTimestampLayout), nil
}

// ProviderCodeFromGuideID returns the segment before the first underscore.
func ProviderCodeFromGuideID(id string) string {
	code, _, _ := strings.Cut(strings.TrimSpace(id), "_")
	return code
}

// BaseGuideID strips a "_vN" disambiguation suffix.
func BaseGuideID(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

// GuideVersion returns N of a "_vN" suffix, or 0.
func GuideVersion(id string) int {
	match := versionSuffix.FindStringSubmatch(id)
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

func VersionedGuideID(base string, n int) string {
	return fmt.Sprintf("%s_v%d", BaseGuideID(base), n)
}
