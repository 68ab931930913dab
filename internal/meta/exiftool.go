package meta

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Exiftool 通过子进程驱动 exiftool：读取走 -j（JSON 输出），写入走 -TAG=VALUE。
//
// 约束：
// - 每次调用起一个进程；本工具的写入量级（几十上百个文件）不值得维护 -stay_open 会话
// - 读取只认 Description 族字段；字段名因命名空间而异，按后缀匹配
type Exiftool struct {
	// Bin 可覆盖可执行文件名（默认 "exiftool"；测试可指向桩脚本）。
	Bin string
}

func (t Exiftool) bin() string {
	if t.Bin != "" {
		return t.Bin
	}
	return "exiftool"
}

// Check 确认 exiftool 在 PATH 中可用。
func (t Exiftool) Check() error {
	if _, err := exec.LookPath(t.bin()); err != nil {
		return fmt.Errorf("未找到 exiftool，请先安装并加入 PATH：%w", err)
	}
	return nil
}

// ReadDescription 读取文件现有的描述（任意命名空间下第一个非空的 Description 值）。
//
// exiftool -j 返回的键名不固定（XMP-dc:Description、EXIF:ImageDescription、
// Description……取决于文件与参数），这里只认以 description 结尾的键。
func (t Exiftool) ReadDescription(path string) (string, error) {
	out, err := exec.Command(t.bin(), "-j", "-description", path).Output()
	if err != nil {
		return "", fmt.Errorf("exiftool 读取 %s 失败：%w", path, err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		return "", fmt.Errorf("exiftool 输出不是合法 JSON（%s）：%w", path, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	for k, v := range rows[0] {
		if k == "SourceFile" {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(k), "description") {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}
	return "", nil
}

// Write 执行一次写入。参数顺序与人工执行 exiftool 时一致，便于日志比对。
func (t Exiftool) Write(req Request) error {
	args := make([]string, 0, 5)
	if req.OverwriteOriginal {
		args = append(args, "-overwrite_original")
	}
	if req.CreateSidecar {
		// -o 隐含 -tagsFromFile：新 XMP 带上 raw 的既有 tag；raw 文件不被修改。
		// -overwrite_original 与 -o 组合也不会删除 raw（exiftool 文档语义）。
		args = append(args, "-o", req.SidecarPath)
	}
	args = append(args, "-Description="+req.Description, req.Target)

	out, err := exec.Command(t.bin(), args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("exiftool 写入 %s 失败：%v：%s", req.Target, err, strings.TrimSpace(string(out)))
	}
	return nil
}
