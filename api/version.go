package api

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Version is an Admin API version: a quarterly release "YYYY-MM" or "unstable".
type Version string

// VersionUnstable is the always-available development version.
const VersionUnstable Version = "unstable"

// DefaultAPIVersion is the version used when none is configured
const DefaultAPIVersion Version = "2026-07"

// SupportWindow is how long a stable version is supported after its release.
const SupportWindow = 12 // months

var versionPattern = regexp.MustCompile(`^(\d{4})-(01|04|07|10)$`)

// ParseVersion validates a version string.
func ParseVersion(s string) (Version, error) {
	if s == string(VersionUnstable) {
		return VersionUnstable, nil
	}
	if !versionPattern.MatchString(s) {
		return "", fmt.Errorf("invalid API version %q (expected YYYY-MM with MM in 01, 04, 07, 10, or \"unstable\")", s)
	}
	return Version(s), nil
}

// ReleasedAt returns the first instant of the release month (UTC).
// The unstable version has no release date and returns the zero time.
func (v Version) ReleasedAt() time.Time {
	m := versionPattern.FindStringSubmatch(string(v))
	if m == nil {
		return time.Time{}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// SupportEndsAt returns the first instant at which v is no longer supported.
// The unstable version is never retired and returns the zero time.
func (v Version) SupportEndsAt() time.Time {
	released := v.ReleasedAt()
	if released.IsZero() {
		return time.Time{}
	}
	return released.AddDate(0, SupportWindow, 0)
}

// IsDeprecated reports whether v is out of support at now.
func (v Version) IsDeprecated(now time.Time) bool {
	end := v.SupportEndsAt()
	return !end.IsZero() && !now.Before(end)
}

// Effective returns the version to put in request URLs at now: v itself, or
// unstable when v is out of support.
func (v Version) Effective(now time.Time) Version {
	if v.IsDeprecated(now) {
		return VersionUnstable
	}
	return v
}

// SupportedVersions lists the stable versions in support at now, oldest first.
func SupportedVersions(now time.Time) []Version {
	now = now.UTC()
	quarter := (int(now.Month()) - 1) / 3
	latest := time.Date(now.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)

	var versions []Version
	for release := latest.AddDate(0, -SupportWindow, 0); !release.After(latest); release = release.AddDate(0, 3, 0) {
		v := Version(release.Format("2006-01"))
		if !v.IsDeprecated(now) {
			versions = append(versions, v)
		}
	}
	return versions
}
