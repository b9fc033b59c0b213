package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestFromBuildInfo(t *testing.T) {
	restore(t)
	Version, Commit, Date = "dev", "none", "unknown"

	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	if Version != "v0.3.1" {
		t.Errorf("Version = %q, want v0.3.1", Version)
	}
	if Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want 0123456789ab", Commit)
	}
	if Date != "2026-01-02T03:04:05Z" {
		t.Errorf("Date = %q", Date)
	}
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	restore(t)
	Version, Commit, Date = "v1.0.0", "abc", "today"

	fromBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fff"}},
	})

	if Version != "v1.0.0" || Commit != "abc" || Date != "today" {
		t.Errorf("got %s %s %s, want ldflags values kept", Version, Commit, Date)
	}
}

func TestTemplate(t *testing.T) {
	restore(t)
	Version, Commit, Date = "v2", "c0ffee", "now"
	if got := Template(); !strings.Contains(got, "v2 (commit c0ffee, built now)") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); got != "version: v2\ncommit: c0ffee\nbuilt: now" {
		t.Errorf("String() = %q", got)
	}
}
