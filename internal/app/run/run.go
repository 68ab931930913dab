package run

import (
	"io"
	"time"

	"github.com/John-Robertt/imdesc/internal/config"
	"github.com/John-Robertt/imdesc/internal/domain"
	"github.com/John-Robertt/imdesc/internal/match"
	"github.com/John-Robertt/imdesc/internal/meta"
	"github.com/John-Robertt/imdesc/internal/tsv"
)

// Observer 把运行各阶段的统计从核心流程解耦出来（由 CLI 决定怎么展示）。
// 一次 Execute 内回调是串行的，实现不需要并发安全。
type Observer interface {
	// OnPhase 在某阶段开始时调用；name 取 "parse" | "match" | "write"。
	OnPhase(name string)
	OnParsed(inputs int)
	OnMatched(found, total int)
	OnWritten(updated int)
}

// Execute 顺序执行 解析 → 匹配 → 写入，并汇总为对外稳定的 RunReport。
//
// 错误处理分两档：
// - 输入解析与匹配阶段的错误是整体性的（重复 stem / 歧义 / 扫描超限），
//   生成一条合成 failed 条目后立即收尾——带着可疑的匹配结果继续写入，
//   有把元数据写错文件的风险
// - 写入阶段的错误降级为 item 级（单条失败不影响其他）
func Execute(eff config.EffectiveConfig, input io.Reader, tool meta.Tool, ev match.Events, obs Observer, out io.Writer) domain.RunReport {
	rr := domain.RunReport{
		SearchDir: eff.SearchDir,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
	}

	if obs != nil {
		obs.OnPhase("parse")
	}
	records, err := tsv.Parse(input)
	if err != nil {
		code := tsv.Code(err)
		if code == "" {
			code = domain.ErrCodeInputParse
		}
		return finish(rr, syntheticFailed(code, err.Error()))
	}
	if obs != nil {
		obs.OnParsed(len(records))
	}

	if obs != nil {
		obs.OnPhase("match")
	}
	_, err = match.FindMatches(eff.SearchDir, records, eff.IgnoreJPG, eff.MaxScanItems, ev)
	if err != nil {
		code := match.Code(err)
		if code == "" {
			code = domain.ErrCodeIOFailed
		}
		return finish(rr, syntheticFailed(code, err.Error()))
	}
	if obs != nil {
		found := 0
		for _, rec := range records {
			if rec.FoundPath != "" {
				found++
			}
		}
		obs.OnMatched(found, len(records))
	}

	if obs != nil {
		obs.OnPhase("write")
	}
	results, updated := meta.WriteDescriptions(records, meta.Options{
		DryRun:                eff.DryRun,
		OverwriteDescriptions: eff.OverwriteDescriptions,
		OverwriteOriginals:    eff.OverwriteOriginals,
	}, tool, out)
	if obs != nil {
		obs.OnWritten(updated)
	}

	rr.Items = make([]domain.ItemResult, 0, len(results))
	for _, res := range results {
		rec := records[res.Stem]
		rr.Items = append(rr.Items, domain.ItemResult{
			Stem:         res.Stem,
			DeclaredPath: rec.DeclaredPath,
			FoundPath:    rec.FoundPath,
			Status:       res.Status,
			ErrorCode:    res.ErrorCode,
			ErrorMsg:     res.ErrorMsg,
		})
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func finish(rr domain.RunReport, it domain.ItemResult) domain.RunReport {
	rr.Items = append(rr.Items, it)
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}
