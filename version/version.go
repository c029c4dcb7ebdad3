// Package version 提供 rgi 的版本信息。
// 发布构建通过 -ldflags 注入，例如：
//
//	go build -ldflags "-X github.com/luckenco/rgi/version.gitVersion=v0.3.0" ./cmd/rgi
//
// 未注入时（如 go install）从二进制内嵌的模块与 VCS 信息中读取。
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/gosuri/uitable"
)

// 以下变量由 -ldflags 注入
var (
	// gitVersion 形如 vMAJOR.MINOR.PATCH[-PRERELEASE]
	gitVersion = ""
	// gitCommit 是 $(git rev-parse HEAD) 的输出
	gitCommit = ""
	// gitTreeState 为 clean 或 dirty
	gitTreeState = ""
	// buildDate 是 ISO8601 格式的构建时间
	buildDate = ""
)

// devVersion 表示无法确定版本的开发构建
const devVersion = "v0.0.0-dev"

// Info 描述一个 rgi 二进制
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate,omitempty"`
	GoVersion    string `json:"goVersion"`
	Compiler     string `json:"compiler"`
	Platform     string `json:"platform"`
}

// Get 返回当前二进制的版本信息，-ldflags 注入的值优先
func Get() Info {
	info := Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Compiler:     runtime.Compiler,
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = fromBuildInfo(info, bi)
	}
	if info.GitVersion == "" {
		info.GitVersion = devVersion
	}
	return info
}

// fromBuildInfo 只填充仍为空的字段
func fromBuildInfo(info Info, bi *debug.BuildInfo) Info {
	if info.GitVersion == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.GitVersion = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			if info.GitTreeState == "" {
				info.GitTreeState = "clean"
				if s.Value == "true" {
					info.GitTreeState = "dirty"
				}
			}
		}
	}
	return info
}

// String 返回版本号，工作区有未提交修改时追加 -dirty
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// JSON 返回缩进的 JSON
func (info Info) JSON() (string, error) {
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal version info: %w", err)
	}
	return string(b), nil
}

// Text 以右对齐的两列表格输出，空字段省略
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	row := func(k, v string) {
		if v != "" {
			table.AddRow(k+":", v)
		}
	}
	row("gitVersion", info.GitVersion)
	row("gitCommit", info.GitCommit)
	row("gitTreeState", info.GitTreeState)
	row("buildDate", info.BuildDate)
	row("goVersion", info.GoVersion)
	row("compiler", info.Compiler)
	row("platform", info.Platform)
	return table.String()
}

// Render 按 format 输出，format 取值为 text、json 或 short
func (info Info) Render(format string) (string, error) {
	switch format {
	case "", "text":
		return info.Text(), nil
	case "json":
		return info.JSON()
	case "short":
		return info.GitVersion, nil
	}
	return "", fmt.Errorf("unknown output format %q (text, json, short)", format)
}

// UserAgent 返回发送给 LLM 服务端的 User-Agent，例如 "rgi/v1.2.0 (linux/amd64)"
func UserAgent() string {
	info := Get()
	return fmt.Sprintf("rgi/%s (%s)", info.String(), info.Platform)
}
