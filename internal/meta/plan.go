package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/imdesc/internal/domain"
)

// PlanWrite 基于匹配结果生成一次写入计划（只做 stat，不写入）。
//
// - xmp / raster 目标：就地更新
// - raw 目标：生成新的 XMP sidecar（raw 本身保持不动）。若旁边已有
//   .xmp/.XMP，说明扫描阶段漏掉了它（不变量被破坏），直接报错而不是覆盖
func PlanWrite(rec *domain.Record, overwriteOriginal bool) (Request, error) {
	req := Request{
		Target:            rec.FoundPath,
		Description:       rec.Description,
		OverwriteOriginal: overwriteOriginal,
	}
	if domain.ClassOf(rec.FoundPath) != domain.ClassRaw {
		return req, nil
	}

	base := strings.TrimSuffix(rec.FoundPath, filepath.Ext(rec.FoundPath))
	for _, p := range []string{base + ".xmp", base + ".XMP"} {
		fi, err := os.Stat(p)
		if err == nil && fi.Mode().IsRegular() {
			return Request{}, fmt.Errorf("目标 %s 存在扫描阶段未发现的 XMP：%s", filepath.Base(rec.FoundPath), p)
		}
	}

	req.CreateSidecar = true
	req.SidecarPath = base + ".XMP"
	return req, nil
}
