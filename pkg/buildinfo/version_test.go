package buildinfo

import (
	"strings"
	"testing"
)

func TestGetPrefersStampedValues(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.4.0", "0123456789abcdef0123", "2026-10-01T00:00:00Z"

	got := Get()
	if got.Version != "v1.4.0" || got.Commit != Commit || got.Date != Date {
		t.Errorf("Get() = %+v, want the stamped values", got)
	}
	if got.ShortCommit() != "0123456789ab" {
		t.Errorf("ShortCommit() = %q, want 0123456789ab", got.ShortCommit())
	}
	if tmpl := Template(); !strings.Contains(tmpl, "v1.4.0 (commit 0123456789ab, built 2026-10-01T00:00:00Z)") {
		t.Errorf("Template() = %q", tmpl)
	}
}

func TestShortCommitShort(t *testing.T) {
	if got := (Info{Commit: "none"}).ShortCommit(); got != "none" {
		t.Errorf("ShortCommit() = %q, want none", got)
	}
}
