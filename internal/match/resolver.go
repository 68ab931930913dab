package match

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/imdesc/internal/domain"
)

const (
	// CodeAmbiguous 表示同一 stem 同时命中 raster 与 raw/xmp。
	// 这是用户数据问题（目录树里混进了渲染输出），必须整体终止。
	CodeAmbiguous = "ambiguous_types"
	// CodeScanLimit 表示被检查的文件数超出预算。
	// 这是防止误把超大目录树当 search-dir 的保险丝。
	CodeScanLimit = "scan_limit"
)

// ErrUnavailableType / ErrSameRank 是内部不变量错误：
// 走到这两个分支说明上游的扩展名过滤或输入去重有 bug，而不是用户数据有问题。
// 不做重试/恢复，直接向上传播。
var (
	ErrUnavailableType = errors.New("unavailable file type")
	ErrSameRank        = errors.New("comparing two files of same rank")
)

// Error 是匹配阶段面向用户的致命错误（上层把 Code 映射为退出码）。
type Error struct {
	Code    string
	Stem    string
	Paths   []string // CodeAmbiguous 时为冲突的两个路径
	Scanned int
	Limit   int
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeAmbiguous:
		return fmt.Sprintf("%s：stem %q 同时命中 jpg 类与 raw/xmp 类，不会同时写入两者：\n  %s\n  %s",
			e.Code, e.Stem, e.Paths[0], e.Paths[1])
	case CodeScanLimit:
		return fmt.Sprintf("%s：已检查 %d 个文件（上限 %d），中止文件搜索", e.Code, e.Scanned, e.Limit)
	default:
		return e.Code
	}
}

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SelectPreferred 在“当前已选文件”与“新发现文件”之间做优先级裁决，返回胜者。
// cur 为空串表示该 stem 还没有匹配。纯函数：除事件外无副作用，与扫描顺序无关。
//
// 规则：
// - cur 为空：直接采用 cand（首次发现）
// - 同类别：ErrSameRank——无法知道用户要的是哪一个，禁止悄悄选一个
// - raster 对 raw/xmp：*Error{CodeAmbiguous}——渲染输出永不与原始拍摄/sidecar 兼容
// - 剩下只有 xmp 对 raw：xmp 胜出（sidecar 最可能承载人工整理过的元数据）
func SelectPreferred(cur, cand string, ev Events) (string, error) {
	candClass := domain.ClassOf(cand)
	if candClass == domain.ClassUnknown {
		return "", fmt.Errorf("%w: %s", ErrUnavailableType, cand)
	}

	if cur == "" {
		if ev != nil {
			ev.Found(domain.Stem(cand), cand)
		}
		return cand, nil
	}

	curClass := domain.ClassOf(cur)
	if curClass == domain.ClassUnknown {
		return "", fmt.Errorf("%w: %s", ErrUnavailableType, cur)
	}

	if curClass == candClass {
		return "", fmt.Errorf("%w:\n  %s\n  %s", ErrSameRank, cur, cand)
	}

	if curClass == domain.ClassRaster || candClass == domain.ClassRaster {
		return "", &Error{
			Code:  CodeAmbiguous,
			Stem:  domain.Stem(cand),
			Paths: []string{cur, cand},
		}
	}

	// 此处二者必为 {xmp, raw} 各一。
	if candClass.Rank() > curClass.Rank() {
		if ev != nil {
			ev.Updating(domain.Stem(cand), cand)
		}
		return cand, nil
	}
	return cur, nil
}
