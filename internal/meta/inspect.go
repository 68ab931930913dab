package meta

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/imdesc/internal/domain"
)

// Inspector 读取目标文件当前的描述值（幂等判断用）。
//
// 能本地解析的类型不起子进程：xmp 走宽松 XML 解析，jpg/jpeg 走 EXIF 解码；
// heic、raw 以及本地解析失败的情况回退到外部工具。
// 这让 dry-run 在常见目录树上基本不用 exiftool。
type Inspector struct {
	Tool Tool
}

// Describe 返回 path 当前的描述；没有描述返回空串。
func (i Inspector) Describe(path string) (string, error) {
	switch domain.ClassOf(path) {
	case domain.ClassXMP:
		if s, err := ReadSidecarDescription(path); err == nil {
			return s, nil
		}
	case domain.ClassRaster:
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".jpg" || ext == ".jpeg" {
			// EXIF 里没有不代表整个文件没有（描述也可能写在内嵌 XMP/IPTC），
			// 只有读到非空值才可信；否则交给外部工具兜底。
			if s, err := ReadEXIFDescription(path); err == nil && s != "" {
				return s, nil
			}
		}
	}

	if i.Tool == nil {
		return "", nil
	}
	return i.Tool.ReadDescription(path)
}
