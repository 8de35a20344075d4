package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" || info.GoVersion == "" {
		t.Errorf("Get() = %+v, want every field set", info)
	}
}

func TestFromBuildInfo(t *testing.T) {
	base := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: "go1.0"}

	tests := []struct {
		name string
		base Info
		bi   *debug.BuildInfo
		want Info
	}{
		{
			name: "vcs settings fill defaults",
			base: base,
			bi: &debug.BuildInfo{
				GoVersion: "go1.24.4",
				Main:      debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: Info{Version: "dev", Commit: "0123456789abcdef", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.24.4", Modified: true},
		},
		{
			name: "module version",
			base: base,
			bi:   &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			want: Info{Version: "v1.2.3", Commit: "unknown", BuildTime: "unknown", GoVersion: "go1.0"},
		},
		{
			name: "ldflags win",
			base: Info{Version: "v2.0.0", Commit: "feedface", BuildTime: "today", GoVersion: "go1.0"},
			bi: &debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "other"}},
			},
			want: Info{Version: "v2.0.0", Commit: "feedface", BuildTime: "today", GoVersion: "go1.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.base, tt.bi); got != tt.want {
				t.Errorf("fromBuildInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "0123456789abcdef", BuildTime: "now", GoVersion: "go1.24.4", Modified: true}

	got := info.String()
	want := "gatekeep v1.0.0 (0123456789ab-dirty) built now with go1.24.4"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(String(), "gatekeep ") {
		t.Errorf("package String() = %q", String())
	}
}

func TestShortCommit(t *testing.T) {
	if got := (Info{Commit: "abc"}).ShortCommit(); got != "abc" {
		t.Errorf("ShortCommit() = %q", got)
	}
}
