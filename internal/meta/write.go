package meta

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/imdesc/internal/domain"
)

// Options 控制写入阶段的行为（与 CLI 开关一一对应）。
type Options struct {
	DryRun                bool
	OverwriteDescriptions bool
	OverwriteOriginals    bool
}

// Result 是单条记录的写入结果（汇入 RunReport 的 item）。
type Result struct {
	Stem      string
	Status    string
	ErrorCode string
	ErrorMsg  string
}

// WriteDescriptions 把描述写入各记录匹配到的文件。
//
// 规则：
// - 未匹配的记录跳过（status=unmatched；合法情况，不算失败）
// - 已有相同描述：no-op（幂等）
// - 已有不同描述：默认跳过，OverwriteDescriptions 时覆盖
// - raw 目标：生成 XMP sidecar，raw 文件保持不动
// - DryRun：完全不写入，本应写入的记录标记为 planned
//
// 单条失败降级为 item 级（不影响其他记录）。按 stem 排序执行，输出可复现。
func WriteDescriptions(records map[string]*domain.Record, opts Options, tool Tool, out io.Writer) ([]Result, int) {
	stems := make([]string, 0, len(records))
	for s := range records {
		stems = append(stems, s)
	}
	sort.Strings(stems)

	insp := Inspector{Tool: tool}
	results := make([]Result, 0, len(records))
	updated := 0

	for _, stem := range stems {
		rec := records[stem]
		if rec.FoundPath == "" {
			results = append(results, Result{Stem: stem, Status: domain.StatusUnmatched})
			continue
		}

		req, err := PlanWrite(rec, opts.OverwriteOriginals)
		if err != nil {
			results = append(results, Result{
				Stem:      stem,
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeIOFailed,
				ErrorMsg:  err.Error(),
			})
			continue
		}
		if req.CreateSidecar {
			fmt.Fprintf(out, "为 %s 生成 XMP sidecar：%s\n", filepath.Base(rec.FoundPath), filepath.Base(req.SidecarPath))
		}

		// 幂等检查：只在目标文件存在时读取现有描述。
		if _, statErr := os.Stat(req.Target); statErr == nil {
			existing, err := insp.Describe(req.Target)
			if err != nil {
				results = append(results, Result{
					Stem:      stem,
					Status:    domain.StatusFailed,
					ErrorCode: domain.ErrCodeIOFailed,
					ErrorMsg:  err.Error(),
				})
				continue
			}
			if existing != "" {
				if existing == rec.Description {
					fmt.Fprintf(out, "跳过 %s：已存在相同描述\n", filepath.Base(rec.FoundPath))
					results = append(results, Result{Stem: stem, Status: domain.StatusSkipped})
					continue
				}
				if !opts.OverwriteDescriptions {
					fmt.Fprintf(out, "跳过 %s：已存在不同描述（未开启 --overwrite-descriptions）\n", filepath.Base(rec.FoundPath))
					results = append(results, Result{Stem: stem, Status: domain.StatusSkipped})
					continue
				}
				fmt.Fprintf(out, "覆盖 %s 的现有描述\n", filepath.Base(rec.FoundPath))
			}
		}

		if opts.DryRun {
			results = append(results, Result{Stem: stem, Status: domain.StatusPlanned})
			continue
		}

		if err := tool.Write(req); err != nil {
			results = append(results, Result{
				Stem:      stem,
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeWriteFailed,
				ErrorMsg:  err.Error(),
			})
			continue
		}
		updated++
		fmt.Fprintf(out, "已写入 %s\n", filepath.Base(rec.FoundPath))
		results = append(results, Result{Stem: stem, Status: domain.StatusUpdated})
	}

	return results, updated
}
