package match

import (
	"fmt"
	"io"
)

// Events 把匹配过程中的可读输出从核心逻辑中解耦出来（上层决定是否启用、输出到哪）。
//
// 约束：
// - 三条输出行是对外稳定契约，测试逐字比对
// - 实现不需要并发安全：一次扫描是单线程的
type Events interface {
	// Found 在某个 stem 第一次匹配到文件时触发。
	Found(stem, path string)
	// Updating 在更高优先级候选覆盖已有匹配时触发。
	Updating(stem, path string)
	// SkipUnavailable 在文件扩展名不在允许集合内被跳过时触发。
	SkipUnavailable(path string)
}

// WriterEvents 把事件按契约格式写到一个 io.Writer（通常是 stderr）。
type WriterEvents struct {
	W io.Writer
}

func (e WriterEvents) Found(stem, path string) {
	fmt.Fprintf(e.W, "Found %s -> %s\n", stem, path)
}

func (e WriterEvents) Updating(stem, path string) {
	fmt.Fprintf(e.W, "Updating %s -> %s\n", stem, path)
}

func (e WriterEvents) SkipUnavailable(path string) {
	fmt.Fprintf(e.W, "Skipping unavailable type %s\n", path)
}
