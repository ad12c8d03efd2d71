package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = origVersion, origCommit, origDate })
}

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestGetInfo(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		commit      string
		date        string
		buildInfo   *debug.BuildInfo
		wantVersion string
		wantCommit  string
		wantDate    string
	}{
		{
			name:        "ldflags win over build info",
			version:     "1.4.0",
			commit:      "abc123def456",
			date:        "2026-01-01T12:00:00Z",
			buildInfo:   &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}},
			wantVersion: "1.4.0",
			wantCommit:  "abc123def456",
			wantDate:    "2026-01-01T12:00:00Z",
		},
		{
			name:    "go install build",
			version: "dev", commit: "unknown", date: "unknown",
			buildInfo: &debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789ab"},
					{Key: "vcs.time", Value: "2026-02-03T04:05:06Z"},
				},
			},
			wantVersion: "v1.2.3",
			wantCommit:  "0123456789ab",
			wantDate:    "2026-02-03T04:05:06Z",
		},
		{
			name:    "local checkout",
			version: "dev", commit: "unknown", date: "unknown",
			buildInfo:   &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			wantVersion: "dev",
			wantCommit:  "unknown",
			wantDate:    "unknown",
		},
		{
			name:    "no build info",
			version: "dev", commit: "unknown", date: "unknown",
			wantVersion: "dev",
			wantCommit:  "unknown",
			wantDate:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.version, tt.commit, tt.date)
			withBuildInfo(t, tt.buildInfo)

			info := GetInfo()
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantDate, info.Date)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.4.0",
		Commit:    "abc123def456",
		Date:      "2026-01-01",
		GoVersion: "go1.24.6",
		Platform:  "linux/amd64",
	}
	assert.Equal(t, "oneway 1.4.0 (abc123de) built 2026-01-01 with go1.24.6 for linux/amd64", info.String())

	info.Commit = "abc"
	assert.Contains(t, info.String(), "(abc)")
}

func TestShortAndUserAgent(t *testing.T) {
	info := Info{Version: "1.4.0"}
	assert.Equal(t, "1.4.0", info.Short())
	assert.Equal(t, "oneway/1.4.0", info.UserAgent())
}
