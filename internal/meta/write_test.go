package meta

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/imdesc/internal/domain"
)

// fakeTool 是 Tool 的测试替身：预置各路径的现有描述，记录全部写入请求。
type fakeTool struct {
	existing map[string]string
	writeErr error
	writes   []Request
}

func (f *fakeTool) ReadDescription(path string) (string, error) {
	return f.existing[path], nil
}

func (f *fakeTool) Write(req Request) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, req)
	return nil
}

func rawRecord(t *testing.T, dir, stem, desc string) *domain.Record {
	t.Helper()
	p := filepath.Join(dir, stem+".ARW")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatalf("创建文件失败：%v", err)
	}
	return &domain.Record{Stem: stem, DeclaredPath: stem + ".ARW", Description: desc, FoundPath: p}
}

func statusByStem(results []Result) map[string]string {
	m := make(map[string]string, len(results))
	for _, r := range results {
		m[r.Stem] = r.Status
	}
	return m
}

func TestWriteDescriptions_UnmatchedIsSkippedNotFailed(t *testing.T) {
	records := map[string]*domain.Record{
		"IMG_0001": {Stem: "IMG_0001", DeclaredPath: "IMG_0001.ARW", Description: "d"},
	}
	ft := &fakeTool{}
	results, updated := WriteDescriptions(records, Options{}, ft, &bytes.Buffer{})
	if updated != 0 || len(ft.writes) != 0 {
		t.Fatalf("不期望写入：updated=%d writes=%d", updated, len(ft.writes))
	}
	if statusByStem(results)["IMG_0001"] != domain.StatusUnmatched {
		t.Fatalf("期望 unmatched，实际 %+v", results)
	}
}

func TestWriteDescriptions_WritesAndCreatesSidecarForRaw(t *testing.T) {
	dir := t.TempDir()
	records := map[string]*domain.Record{
		"IMG_0001": rawRecord(t, dir, "IMG_0001", "海边的落日"),
	}
	ft := &fakeTool{}
	var out bytes.Buffer

	results, updated := WriteDescriptions(records, Options{}, ft, &out)
	if updated != 1 {
		t.Fatalf("期望 updated=1，实际 %d", updated)
	}
	if statusByStem(results)["IMG_0001"] != domain.StatusUpdated {
		t.Fatalf("期望 updated，实际 %+v", results)
	}
	if len(ft.writes) != 1 {
		t.Fatalf("期望 1 次写入，实际 %d", len(ft.writes))
	}
	req := ft.writes[0]
	if !req.CreateSidecar || req.SidecarPath != filepath.Join(dir, "IMG_0001.XMP") {
		t.Fatalf("期望 sidecar 写入请求，实际 %+v", req)
	}
	if req.Description != "海边的落日" {
		t.Fatalf("描述不符：%q", req.Description)
	}
	if !strings.Contains(out.String(), "生成 XMP sidecar") {
		t.Fatalf("期望输出提示 sidecar 生成，实际 %q", out.String())
	}
}

func TestWriteDescriptions_IdempotentSkip(t *testing.T) {
	dir := t.TempDir()
	rec := rawRecord(t, dir, "IMG_0001", "一样的描述")
	ft := &fakeTool{existing: map[string]string{rec.FoundPath: "一样的描述"}}
	var out bytes.Buffer

	results, updated := WriteDescriptions(map[string]*domain.Record{"IMG_0001": rec}, Options{}, ft, &out)
	if updated != 0 || len(ft.writes) != 0 {
		t.Fatalf("不期望写入：updated=%d writes=%d", updated, len(ft.writes))
	}
	if statusByStem(results)["IMG_0001"] != domain.StatusSkipped {
		t.Fatalf("期望 skipped，实际 %+v", results)
	}
	if !strings.Contains(out.String(), "已存在相同描述") {
		t.Fatalf("期望输出说明幂等跳过，实际 %q", out.String())
	}
}

func TestWriteDescriptions_DifferentDescriptionNeedsOverwrite(t *testing.T) {
	dir := t.TempDir()
	rec := rawRecord(t, dir, "IMG_0001", "新描述")
	ft := &fakeTool{existing: map[string]string{rec.FoundPath: "旧描述"}}
	var out bytes.Buffer

	// 默认：跳过。
	results, updated := WriteDescriptions(map[string]*domain.Record{"IMG_0001": rec}, Options{}, ft, &out)
	if updated != 0 {
		t.Fatalf("期望 updated=0，实际 %d", updated)
	}
	if statusByStem(results)["IMG_0001"] != domain.StatusSkipped {
		t.Fatalf("期望 skipped，实际 %+v", results)
	}
	if !strings.Contains(out.String(), "--overwrite-descriptions") {
		t.Fatalf("期望输出提示开关，实际 %q", out.String())
	}

	// 开启 OverwriteDescriptions：覆盖写入。
	out.Reset()
	results, updated = WriteDescriptions(map[string]*domain.Record{"IMG_0001": rec}, Options{OverwriteDescriptions: true}, ft, &out)
	if updated != 1 || len(ft.writes) != 1 {
		t.Fatalf("期望写入一次：updated=%d writes=%d", updated, len(ft.writes))
	}
	if statusByStem(results)["IMG_0001"] != domain.StatusUpdated {
		t.Fatalf("期望 updated，实际 %+v", results)
	}
}

func TestWriteDescriptions_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	records := map[string]*domain.Record{
		"IMG_0001": rawRecord(t, dir, "IMG_0001", "描述一"),
		"IMG_0002": {Stem: "IMG_0002", DeclaredPath: "IMG_0002.jpg", Description: "描述二"},
	}
	ft := &fakeTool{}

	results, updated := WriteDescriptions(records, Options{DryRun: true}, ft, &bytes.Buffer{})
	if updated != 0 || len(ft.writes) != 0 {
		t.Fatalf("dry-run 不应写入：updated=%d writes=%d", updated, len(ft.writes))
	}
	st := statusByStem(results)
	if st["IMG_0001"] != domain.StatusPlanned || st["IMG_0002"] != domain.StatusUnmatched {
		t.Fatalf("状态不符：%+v", st)
	}
}

func TestWriteDescriptions_WriteFailureIsItemLevel(t *testing.T) {
	dir := t.TempDir()
	records := map[string]*domain.Record{
		"IMG_0001": rawRecord(t, dir, "IMG_0001", "描述一"),
	}
	ft := &fakeTool{writeErr: errors.New("exiftool 崩了")}

	results, updated := WriteDescriptions(records, Options{}, ft, &bytes.Buffer{})
	if updated != 0 {
		t.Fatalf("期望 updated=0，实际 %d", updated)
	}
	if len(results) != 1 || results[0].Status != domain.StatusFailed || results[0].ErrorCode != domain.ErrCodeWriteFailed {
		t.Fatalf("期望 failed/write_failed，实际 %+v", results)
	}
}

func TestWriteDescriptions_ResultsSortedByStem(t *testing.T) {
	dir := t.TempDir()
	records := map[string]*domain.Record{
		"IMG_0002": rawRecord(t, dir, "IMG_0002", "b"),
		"IMG_0001": rawRecord(t, dir, "IMG_0001", "a"),
	}
	results, _ := WriteDescriptions(records, Options{DryRun: true}, &fakeTool{}, &bytes.Buffer{})
	if len(results) != 2 || results[0].Stem != "IMG_0001" || results[1].Stem != "IMG_0002" {
		t.Fatalf("期望按 stem 排序，实际 %+v", results)
	}
}
