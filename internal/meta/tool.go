package meta

// Request 描述一次元数据写入（由 PlanWrite 生成，Tool 执行）。
type Request struct {
	// Target 是命令作用的文件：xmp/raster 目标就是要改写的文件；
	// raw 目标配合 CreateSidecar 只作为 tag 来源，本身不被修改。
	Target      string
	Description string

	// CreateSidecar 为 true 时不改写 Target，而是生成 SidecarPath 指向的
	// 新 XMP（从 Target 复制既有 tag）。
	CreateSidecar bool
	SidecarPath   string

	// OverwriteOriginal 直接改写原文件，不保留 "_original" 备份副本。
	OverwriteOriginal bool
}

// Tool 是外部元数据工具的最小抽象（便于测试替身，也便于未来换实现）。
type Tool interface {
	// ReadDescription 读取现有描述值；文件没有该字段时返回空串（不算错误）。
	ReadDescription(path string) (string, error)
	// Write 执行一次写入。
	Write(req Request) error
}
