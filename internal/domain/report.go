package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusUpdated   = "updated"
	StatusPlanned   = "planned" // dry-run 下本应写入的条目
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusUnmatched = "unmatched"
)

const (
	ErrCodeInputParse     = "input_parse"
	ErrCodeInputDuplicate = "input_duplicate_stems"
	ErrCodeAmbiguous      = "ambiguous_types"
	ErrCodeScanLimit      = "scan_limit"
	ErrCodeWriteFailed    = "write_failed"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeConfigInvalid  = "config_invalid"
)

// RunReport 是对外稳定输出（stdout JSON / report.json）的结构。
type RunReport struct {
	SearchDir string `json:"search_dir"`
	DryRun    bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Inputs    int `json:"inputs"`
	Matched   int `json:"matched"`
	Updated   int `json:"updated"`
	Planned   int `json:"planned"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Unmatched int `json:"unmatched"`
}

// ItemResult 对应一条输入记录的最终结果；stem 为空的条目是整体性失败
// （输入解析/匹配中止等），此时 Files 级信息不可用。
type ItemResult struct {
	Stem         string `json:"stem"`
	DeclaredPath string `json:"declared_path"`
	FoundPath    string `json:"found_path"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 stem 字典序；stem=="" 的条目排在最后
// 3) summary 由 items 计算得出（inputs 不含合成条目）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Stem
		b := r.Items[j].Stem
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, it := range r.Items {
		if it.Stem != "" {
			s.Inputs++
		}
		if it.FoundPath != "" {
			s.Matched++
		}
		switch it.Status {
		case StatusUpdated:
			s.Updated++
		case StatusPlanned:
			s.Planned++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		case StatusUnmatched:
			s.Unmatched++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
