package domain

// Record 描述一条待写入的描述（以文件名 stem 为唯一主键）。
//
// 不变量（实现必须遵守）：
// - Stem 在整个输入集内唯一（重复是输入解析层的硬错误）
// - 匹配阶段只允许写 FoundPath；其余字段自创建后只读
type Record struct {
	Stem   string
	LineNo int // 输入行号，仅用于诊断

	// DeclaredPath 是输入里声明的文件名（含扩展名）。
	// 扩展名仅作参考，匹配只看 stem。
	DeclaredPath string
	Description  string

	// FoundPath 由匹配子系统独占写入；空串表示尚未匹配到文件。
	// 一次扫描内最多被更高优先级的候选覆盖，不会被同级候选覆盖。
	FoundPath string
}
