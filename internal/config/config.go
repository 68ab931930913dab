package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段/参数不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultMaxScanItems 是扫描预算的内置默认值。
	// 这是防止误把超大目录树当 search-dir 的保险丝，不是性能参数。
	DefaultMaxScanItems = 30000
	// FileName 是可选配置文件名（位于 search-dir 下）。
	FileName = "imdesc.json"
)

// CLIArgs 保存 CLI 暴露的全部入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --max-scan-items 必须能覆盖配置文件的值。
type CLIArgs struct {
	Input     string
	SearchDir string

	DryRun bool

	IgnoreJPG    bool
	IgnoreJPGSet bool

	MaxScanItems    int
	MaxScanItemsSet bool

	OverwriteDescriptions    bool
	OverwriteDescriptionsSet bool

	OverwriteOriginals    bool
	OverwriteOriginalsSet bool
}

// FileConfig 对应 imdesc.json 的解析结构。
// 指针字段用于区分“未设置”与“显式 false”。
type FileConfig struct {
	IgnoreJPG             *bool `json:"ignore_jpg"`
	MaxScanItems          int   `json:"max_scan_items"`
	OverwriteDescriptions *bool `json:"overwrite_descriptions"`
	OverwriteOriginals    *bool `json:"overwrite_originals"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，
// 不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Input     string
	SearchDir string

	DryRun                bool
	IgnoreJPG             bool
	MaxScanItems          int
	OverwriteDescriptions bool
	OverwriteOriginals    bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 解析 search-dir，读取其下可选的 imdesc.json，并与 CLI 参数
// 合并为最终配置。
//
// 覆盖优先级（固定）：
// - search-dir / input / dry-run：仅 CLI（文件不可设置）
// - ignore_jpg / max_scan_items / overwrite_*：CLI > 文件 > 内置默认
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	searchDir := cwdAbs
	if strings.TrimSpace(cli.SearchDir) != "" {
		searchDir = absCleanFrom(cwdAbs, cli.SearchDir)
	}
	fi, err := os.Stat(searchDir)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: searchDir, Err: fmt.Errorf("search-dir 不可用：%w", err)}
	}
	if !fi.IsDir() {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: searchDir, Err: fmt.Errorf("search-dir 不是目录：%s", searchDir)}
	}

	cfgPath := filepath.Join(searchDir, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff := EffectiveConfig{
		Input:        cli.Input,
		SearchDir:    searchDir,
		DryRun:       cli.DryRun,
		MaxScanItems: DefaultMaxScanItems,
	}

	if fc.IgnoreJPG != nil {
		eff.IgnoreJPG = *fc.IgnoreJPG
	}
	if cli.IgnoreJPGSet {
		eff.IgnoreJPG = cli.IgnoreJPG
	}

	if fc.MaxScanItems != 0 {
		eff.MaxScanItems = fc.MaxScanItems
	}
	if cli.MaxScanItemsSet {
		eff.MaxScanItems = cli.MaxScanItems
	}
	// 只扫描一个文件意义不大，但不算错误；0/负数才是配置错误。
	if eff.MaxScanItems < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("max_scan_items 必须 ≥ 1，实际是 %d", eff.MaxScanItems)}
	}

	if fc.OverwriteDescriptions != nil {
		eff.OverwriteDescriptions = *fc.OverwriteDescriptions
	}
	if cli.OverwriteDescriptionsSet {
		eff.OverwriteDescriptions = cli.OverwriteDescriptions
	}

	if fc.OverwriteOriginals != nil {
		eff.OverwriteOriginals = *fc.OverwriteOriginals
	}
	if cli.OverwriteOriginalsSet {
		eff.OverwriteOriginals = cli.OverwriteOriginals
	}

	return eff, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
