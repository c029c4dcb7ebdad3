package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{name: "clean", info: Info{GitVersion: "v1.0.0", GitTreeState: "clean"}, expected: "v1.0.0"},
		{name: "dirty", info: Info{GitVersion: "v1.0.0", GitTreeState: "dirty"}, expected: "v1.0.0-dirty"},
		{name: "unknown", info: Info{GitVersion: "v1.0.0"}, expected: "v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInfo_JSON(t *testing.T) {
	info := Info{GitVersion: "v1.0.0", GitCommit: "abc123", Platform: "linux/amd64"}

	s, err := info.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var parsed Info
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		t.Fatalf("解析 JSON 失败: %v", err)
	}
	if parsed != info {
		t.Errorf("round trip = %+v, want %+v", parsed, info)
	}
	// 空字段不输出
	if strings.Contains(s, "buildDate") {
		t.Errorf("JSON() = %s, buildDate should be omitted", s)
	}
}

func TestInfo_Text(t *testing.T) {
	info := Info{
		GitVersion: "v1.0.0",
		GitCommit:  "abc123",
		BuildDate:  "2024-01-01T00:00:00Z",
		GoVersion:  "go1.25.0",
		Compiler:   "gc",
		Platform:   "linux/amd64",
	}
	text := info.Text()

	for _, field := range []string{"gitVersion:", "v1.0.0", "gitCommit:", "abc123", "buildDate:", "goVersion:", "platform:"} {
		if !strings.Contains(text, field) {
			t.Errorf("Text() missing %q", field)
		}
	}
	// 空字段不应该出现
	if strings.Contains(text, "gitTreeState:") {
		t.Error("Text() should omit an empty gitTreeState")
	}
}

func TestInfo_Render(t *testing.T) {
	info := Info{GitVersion: "v1.0.0", GitCommit: "abc123"}

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "short", want: "v1.0.0"},
		{format: "json", want: `"gitVersion": "v1.0.0"`},
		{format: "text", want: "gitCommit:"},
		{format: "", want: "gitCommit:"},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := info.Render(tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Render(%q) expected error", tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Render(%q) error = %v", tt.format, err)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Render(%q) = %q, want substring %q", tt.format, got, tt.want)
		}
	}
}

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2025-03-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	got := fromBuildInfo(Info{}, bi)
	if got.GitVersion != "v0.4.1" || got.GitCommit != "deadbeef" || got.GitTreeState != "dirty" || got.BuildDate != "2025-03-01T10:00:00Z" {
		t.Errorf("fromBuildInfo() = %+v", got)
	}

	// -ldflags 注入的值优先
	got = fromBuildInfo(Info{GitVersion: "v1.0.0", GitCommit: "abc"}, bi)
	if got.GitVersion != "v1.0.0" || got.GitCommit != "abc" {
		t.Errorf("fromBuildInfo() overrode injected values: %+v", got)
	}

	// 开发构建没有模块版本
	got = fromBuildInfo(Info{}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got.GitVersion != "" {
		t.Errorf("GitVersion = %q, want empty for (devel)", got.GitVersion)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.GitVersion == "" {
		t.Error("GitVersion should never be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %v, want %v", info.Platform, want)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "rgi/") {
		t.Errorf("UserAgent() = %q, want rgi/ prefix", ua)
	}
	if !strings.Contains(ua, runtime.GOOS) {
		t.Errorf("UserAgent() = %q, want platform", ua)
	}
}
