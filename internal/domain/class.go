package domain

import (
	"path/filepath"
	"strings"
)

// FileClass 是匹配阶段使用的文件类别（封闭集合，不可扩展）。
//
// 约束：raster（渲染输出）与 raw/xmp 永不兼容——同一 stem 同时命中两边
// 必须按歧义终止，而不是按优先级挑一个。
type FileClass int

const (
	ClassUnknown FileClass = iota
	ClassRaster
	ClassRaw
	ClassXMP
)

// 扩展名集合是只读的包级查表；匹配只认小写扩展名。
var (
	xmpExts = map[string]bool{
		".xmp": true,
	}
	rawExts = map[string]bool{
		".arw": true,
		".cr2": true,
		".dng": true,
		".raf": true,
		".nef": true,
	}
	rasterExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".heic": true,
	}
)

// ClassOf 按扩展名（大小写不敏感）判定文件类别；未识别返回 ClassUnknown。
func ClassOf(path string) FileClass {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case xmpExts[ext]:
		return ClassXMP
	case rawExts[ext]:
		return ClassRaw
	case rasterExts[ext]:
		return ClassRaster
	default:
		return ClassUnknown
	}
}

// Rank 返回解析用优先级：xmp > raw > raster。
// 只用于 xmp/raw 之间的裁决；raster 的互斥性不在这里表达。
func (c FileClass) Rank() int {
	switch c {
	case ClassXMP:
		return 3
	case ClassRaw:
		return 2
	case ClassRaster:
		return 1
	default:
		return 0
	}
}

func (c FileClass) String() string {
	switch c {
	case ClassXMP:
		return "xmp"
	case ClassRaw:
		return "raw"
	case ClassRaster:
		return "raster"
	default:
		return "unknown"
	}
}

// Stem 取文件名去掉目录与扩展名后的部分（匹配的唯一主键）。
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
