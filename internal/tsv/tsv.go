package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/imdesc/internal/domain"
)

const (
	// ErrCodeParse 表示某一行无法按 "文件名<TAB>描述" 解析。
	ErrCodeParse = "input_parse"
	// ErrCodeDuplicate 表示输入中出现重复 stem（文件名去扩展名后必须唯一）。
	ErrCodeDuplicate = "input_duplicate_stems"
)

// Dup 记录一处重复 stem 的出处（行号 + 声明的文件名），用于一次性报全。
type Dup struct {
	LineNo       int
	DeclaredPath string
}

// Error 是输入解析阶段的结构化错误（带 error_code）。
type Error struct {
	Code   string
	LineNo int
	Line   string
	Dups   []Dup
	Err    error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeParse:
		if e.Line != "" {
			return fmt.Sprintf("%s：第 %d 行无法解析（需要 文件名<TAB>描述）：%q", e.Code, e.LineNo, e.Line)
		}
		return fmt.Sprintf("%s：读取输入失败：%v", e.Code, e.Err)
	case ErrCodeDuplicate:
		var b strings.Builder
		b.WriteString(e.Code)
		b.WriteString("：以下文件名的 stem 重复（文件名去扩展名后必须唯一）：")
		for _, d := range e.Dups {
			fmt.Fprintf(&b, "\n  %d: %s", d.LineNo, d.DeclaredPath)
		}
		return b.String()
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Parse 解析 TSV 输入（每行 "文件名<TAB>描述"），返回 stem -> Record 的表。
//
// 规则：
// - 空行跳过，但行号照常累计（诊断信息对得上编辑器）
// - 任何一行不是恰好两列：整体失败（ErrCodeParse）
// - 重复 stem：先收集齐（含首次出现处），再整体失败（ErrCodeDuplicate）
func Parse(r io.Reader) (map[string]*domain.Record, error) {
	sc := bufio.NewScanner(r)
	// 描述可能很长（alt text 动辄数百字），放宽单行上限。
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	records := make(map[string]*domain.Record, 64)
	var dups []Dup
	seenDup := make(map[string]bool)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}

		parts := strings.Split(strings.TrimSpace(raw), "\t")
		if len(parts) != 2 {
			return nil, &Error{Code: ErrCodeParse, LineNo: lineNo, Line: raw}
		}
		declared, desc := parts[0], parts[1]
		if declared == "" {
			return nil, &Error{Code: ErrCodeParse, LineNo: lineNo, Line: raw}
		}
		stem := domain.Stem(declared)

		if prev, ok := records[stem]; ok {
			if !seenDup[stem] {
				seenDup[stem] = true
				// 第一处重复出现时，把首次出现的位置也补进列表。
				dups = append(dups, Dup{LineNo: prev.LineNo, DeclaredPath: prev.DeclaredPath})
			}
			dups = append(dups, Dup{LineNo: lineNo, DeclaredPath: declared})
		}

		records[stem] = &domain.Record{
			Stem:         stem,
			LineNo:       lineNo,
			DeclaredPath: declared,
			Description:  desc,
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &Error{Code: ErrCodeParse, Err: err}
	}

	if len(dups) > 0 {
		return nil, &Error{Code: ErrCodeDuplicate, Dups: dups}
	}
	return records, nil
}
