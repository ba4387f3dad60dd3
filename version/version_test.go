package version

import (
	"runtime/debug"
	"testing"
)

func withBuild(t *testing.T, version, commit string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origBuild, origRead := Version, GitCommit, BuildTime, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, readBuildInfo = origVersion, origCommit, origBuild, origRead
	})
	Version, GitCommit, BuildTime = version, commit, ""
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGet(t *testing.T) {
	vcs := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	}

	tests := []struct {
		name      string
		version   string
		commit    string
		bi        *debug.BuildInfo
		wantShort string
		wantTime  string
	}{
		{"no build info", "dev", "", nil, "dev", ""},
		{"vcs fills gaps", "0.3.0", "", vcs, "0.3.0-0123456-dirty", "2026-10-01T12:00:00Z"},
		{"ldflags win", "0.3.0", "feedfacecafe", vcs, "0.3.0-feedfac-dirty", "2026-10-01T12:00:00Z"},
		{"clean", "1.0.0", "", &debug.BuildInfo{GoVersion: "go1.26.0"}, "1.0.0", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.version, tt.commit, tt.bi)
			if got := Short(); got != tt.wantShort {
				t.Errorf("Short() = %q, want %q", got, tt.wantShort)
			}
			if got := Get().BuildTime; got != tt.wantTime {
				t.Errorf("BuildTime = %q, want %q", got, tt.wantTime)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "0.3.0", "", nil)
	if got := UserAgent(); got != "walletd/0.3.0" {
		t.Errorf("unexpected user agent %q", got)
	}
}
