package match

import (
	"io/fs"
	"path/filepath"

	"github.com/John-Robertt/imdesc/internal/domain"
)

// vendorWorkspaceDir 是固定排除的厂商工作区目录名（Capture One 的 session
// 缓存），任何深度都不进入——里面的代理/缩略图与输入 stem 同名，会制造假冲突。
const vendorWorkspaceDir = "CaptureOne"

// FindMatches 递归扫描 root，把命中 stem 的文件通过 SelectPreferred 折叠进 records。
// 返回的表就是传入的表（身份不变：不替换 map、不增删条目，只写 Record.FoundPath）。
//
// 约束：
// - 每个被检查的文件（无论是否命中）都计入扫描预算；超过 maxScanItems 立刻中止
// - ignoreRaster=true 时 raster 类扩展名按“不可用类型”跳过，不会成为候选
// - 目录内文件顺序不做保证；最终胜出的类别与顺序无关（同级/歧义都按错误终止）
func FindMatches(root string, records map[string]*domain.Record, ignoreRaster bool, maxScanItems int, ev Events) (map[string]*domain.Record, error) {
	root = filepath.Clean(root)
	scanned := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			// root 本身叫 CaptureOne 不算排除；只剪掉子树里的工作区目录。
			if d.Name() == vendorWorkspaceDir && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		scanned++
		if scanned > maxScanItems {
			return &Error{Code: CodeScanLimit, Scanned: scanned - 1, Limit: maxScanItems}
		}

		class := domain.ClassOf(path)
		if class == domain.ClassUnknown || (ignoreRaster && class == domain.ClassRaster) {
			if ev != nil {
				ev.SkipUnavailable(path)
			}
			return nil
		}

		rec, ok := records[domain.Stem(path)]
		if !ok {
			return nil
		}

		sel, err := SelectPreferred(rec.FoundPath, path, ev)
		if err != nil {
			return err
		}
		rec.FoundPath = sel
		return nil
	})
	if err != nil {
		return records, err
	}
	return records, nil
}
