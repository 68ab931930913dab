package match

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/imdesc/internal/domain"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("创建文件失败：%v", err)
	}
}

func recordsFor(stems ...string) map[string]*domain.Record {
	m := make(map[string]*domain.Record, len(stems))
	for i, s := range stems {
		m[s] = &domain.Record{Stem: s, LineNo: i + 1, DeclaredPath: s + ".ARW"}
	}
	return m
}

func TestFindMatches_StandardTree(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Selects", "IMG_0001.ARW"))
	touch(t, filepath.Join(root, "Selects", "IMG_0001.XMP"))
	touch(t, filepath.Join(root, "IMG_0002.JPG"))
	// CaptureOne 工作区里的同名文件绝不能成为候选。
	touch(t, filepath.Join(root, "CaptureOne", "Cache", "IMG_0001.jpg"))
	touch(t, filepath.Join(root, "Selects", "CaptureOne", "IMG_0002.ARW"))

	records := recordsFor("IMG_0001", "IMG_0002", "IMG_0003")
	got, err := FindMatches(root, records, false, 1000, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if got["IMG_0001"].FoundPath != filepath.Join(root, "Selects", "IMG_0001.XMP") {
		t.Fatalf("期望 IMG_0001 命中 XMP，实际 %q", got["IMG_0001"].FoundPath)
	}
	if got["IMG_0002"].FoundPath != filepath.Join(root, "IMG_0002.JPG") {
		t.Fatalf("期望 IMG_0002 命中 JPG，实际 %q", got["IMG_0002"].FoundPath)
	}
	if got["IMG_0003"].FoundPath != "" {
		t.Fatalf("期望 IMG_0003 无匹配，实际 %q", got["IMG_0003"].FoundPath)
	}
}

func TestFindMatches_IdentityPreserved(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "IMG_0001.ARW"))

	records := recordsFor("IMG_0001")
	before := records["IMG_0001"]

	got, err := FindMatches(root, records, false, 1000, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 就地更新：同一张表、同一个 Record 指针。
	if len(got) != 1 || got["IMG_0001"] != before {
		t.Fatalf("期望表身份不变，实际 len=%d same=%v", len(got), got["IMG_0001"] == before)
	}
	if before.FoundPath == "" {
		t.Fatalf("期望 FoundPath 已写入")
	}
}

func TestFindMatches_ScanLimit(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		touch(t, filepath.Join(root, n))
	}

	_, err := FindMatches(root, recordsFor("IMG_0001"), false, 4, nil)
	if Code(err) != CodeScanLimit {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", CodeScanLimit, err, Code(err))
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("期望 *Error，实际 %T", err)
	}
	if e.Scanned != 4 || e.Limit != 4 {
		t.Fatalf("期望 Scanned=4 Limit=4，实际 %+v", e)
	}
	if !strings.Contains(err.Error(), "4") {
		t.Fatalf("期望错误信息包含上限，实际：%v", err)
	}
}

func TestFindMatches_SkipUnknownType(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "IMG_0001.txt"))
	touch(t, filepath.Join(root, "IMG_0001.ARW"))

	var buf bytes.Buffer
	got, err := FindMatches(root, recordsFor("IMG_0001"), false, 1000, WriterEvents{W: &buf})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got["IMG_0001"].FoundPath != filepath.Join(root, "IMG_0001.ARW") {
		t.Fatalf("期望命中 ARW，实际 %q", got["IMG_0001"].FoundPath)
	}
	want := "Skipping unavailable type " + filepath.Join(root, "IMG_0001.txt") + "\n"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("期望输出含 %q，实际 %q", want, buf.String())
	}
}

func TestFindMatches_IgnoreRaster(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "IMG_0001.JPG"))
	touch(t, filepath.Join(root, "IMG_0001.ARW"))

	// 不忽略 raster：raster 对 raw 是歧义。
	_, err := FindMatches(root, recordsFor("IMG_0001"), false, 1000, nil)
	if Code(err) != CodeAmbiguous {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", CodeAmbiguous, err, Code(err))
	}

	// 忽略 raster：JPG 按不可用类型跳过，ARW 正常命中。
	got, err := FindMatches(root, recordsFor("IMG_0001"), true, 1000, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got["IMG_0001"].FoundPath != filepath.Join(root, "IMG_0001.ARW") {
		t.Fatalf("期望命中 ARW，实际 %q", got["IMG_0001"].FoundPath)
	}
}

func TestFindMatches_RootNamedCaptureOne(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "CaptureOne")
	touch(t, filepath.Join(root, "IMG_0001.ARW"))

	// root 本身叫 CaptureOne 不算排除。
	got, err := FindMatches(root, recordsFor("IMG_0001"), false, 1000, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got["IMG_0001"].FoundPath == "" {
		t.Fatalf("期望 root 本身不被剪掉")
	}
}

func TestFindMatches_VendorDirFilesNotCountedAgainstBudget(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		touch(t, filepath.Join(root, "CaptureOne", "Cache", fmt.Sprintf("proxy_%02d.jpg", i)))
	}
	touch(t, filepath.Join(root, "IMG_0001.ARW"))

	// 被剪掉的子树不进入扫描，也就不消耗预算。
	got, err := FindMatches(root, recordsFor("IMG_0001"), false, 2, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got["IMG_0001"].FoundPath == "" {
		t.Fatalf("期望命中 ARW")
	}
}
