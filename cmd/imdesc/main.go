package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/John-Robertt/imdesc/internal/app/run"
	"github.com/John-Robertt/imdesc/internal/config"
	"github.com/John-Robertt/imdesc/internal/domain"
	"github.com/John-Robertt/imdesc/internal/infra/fsx"
	"github.com/John-Robertt/imdesc/internal/match"
	"github.com/John-Robertt/imdesc/internal/meta"
)

// 退出码约定：0 成功；1 一般失败；2 参数错误；3 类型歧义；4 扫描超限。
// 3/4 单独区分，方便脚本判断“该去清理目录树”还是“该调大预算”。
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitAmbiguous = 3
	exitScanLimit = 4
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "write":
		if code := writeCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(exitUsage)
	}
}

func writeCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printWriteUsage()
			return 0
		}
	}

	cli, err := parseWriteArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printWriteUsage()
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return exitFailed
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailed
	}

	input := io.Reader(os.Stdin)
	if eff.Input != "-" {
		f, err := os.Open(eff.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "打开输入失败：%v\n", err)
			return exitFailed
		}
		defer f.Close()
		input = f
	}

	tool := meta.Exiftool{}
	if err := tool.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailed
	}

	if eff.DryRun {
		fmt.Fprintln(os.Stderr, "DRY RUN —— 不会写入任何文件")
	}
	if eff.OverwriteOriginals {
		ok, err := confirmOverwriteOriginals(os.Stdin, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取确认输入失败：%v\n", err)
			return exitFailed
		}
		if !ok {
			eff.OverwriteOriginals = false
			fmt.Fprintln(os.Stderr, "已关闭 --overwrite-originals，将保留 \"_original\" 备份")
		}
	}

	rr := run.Execute(eff, input, tool, match.WriterEvents{W: os.Stderr}, phasePrinter{W: os.Stderr}, os.Stderr)

	// 非 dry-run：report.json 落盘到 <search-dir>/.imdesc/（写失败不掩盖运行结果）。
	if !eff.DryRun {
		if err := writeReportFile(eff.SearchDir, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return exitFailed
		}
	}

	emitReport(rr)
	return exitCode(rr)
}

func parseWriteArgs(args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--search-dir":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("--search-dir 需要一个值")
			}
			i++
			cli.SearchDir = args[i]
		case strings.HasPrefix(a, "--search-dir="):
			cli.SearchDir = strings.TrimPrefix(a, "--search-dir=")
		case a == "-n" || a == "--dry-run":
			cli.DryRun = true
		case a == "--ignore-jpg":
			cli.IgnoreJPG = true
			cli.IgnoreJPGSet = true
		case a == "--max-scan-items":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("--max-scan-items 需要一个值")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--max-scan-items 必须是整数，实际是 %q", args[i])
			}
			cli.MaxScanItems = n
			cli.MaxScanItemsSet = true
		case strings.HasPrefix(a, "--max-scan-items="):
			v := strings.TrimPrefix(a, "--max-scan-items=")
			n, err := strconv.Atoi(v)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--max-scan-items 必须是整数，实际是 %q", v)
			}
			cli.MaxScanItems = n
			cli.MaxScanItemsSet = true
		case a == "--overwrite-descriptions":
			cli.OverwriteDescriptions = true
			cli.OverwriteDescriptionsSet = true
		case a == "--overwrite-originals":
			cli.OverwriteOriginals = true
			cli.OverwriteOriginalsSet = true
		case a == "-":
			if cli.Input != "" {
				return config.CLIArgs{}, fmt.Errorf("重复的输入：%q 与 %q", cli.Input, a)
			}
			cli.Input = "-"
		case strings.HasPrefix(a, "-"):
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if cli.Input != "" {
				return config.CLIArgs{}, fmt.Errorf("重复的输入：%q 与 %q", cli.Input, a)
			}
			cli.Input = a
		}
	}

	if cli.Input == "" {
		return config.CLIArgs{}, fmt.Errorf("缺少输入文件（TSV 路径，或 - 表示 stdin）")
	}
	return cli, nil
}

// confirmOverwriteOriginals 在直接改写原文件前要求逐字确认。
// 输入流结束（例如 stdin 被重定向到空）按未确认处理。
func confirmOverwriteOriginals(r io.Reader, w io.Writer) (bool, error) {
	fmt.Fprint(w, "警告：将直接改写原文件，不保留 \"_original\" 备份副本。确定吗？[y/n] ")
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		fmt.Fprint(w, "请输入 y 或 n：")
	}
	return false, sc.Err()
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imdesc write <input.tsv|-> [选项]

命令：
  write    把 TSV 里的描述写入匹配到的图片元数据

使用 "imdesc write --help" 查看详细说明。
`)
}

func printWriteUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imdesc write <input.tsv|-> [--search-dir DIR] [-n] [--ignore-jpg]
               [--max-scan-items N] [--overwrite-descriptions]
               [--overwrite-originals]

输入为 TSV：每行 "文件名<TAB>描述"，- 表示 stdin。
匹配只看文件名 stem（目录与扩展名忽略）；CaptureOne 目录不会被扫描。

选项：
  --search-dir               搜索目录（默认当前目录）
  -n, --dry-run              只匹配并检查现有描述，不写入任何文件
  --ignore-jpg               搜索时忽略 jpg/heic 类型（例如排除 Capture One
                             session 里已渲染的 Output 文件）
  --max-scan-items           检查这么多文件后中止搜索（默认 30000）
  --overwrite-descriptions   覆盖已有的不同描述（默认跳过）
  --overwrite-originals      直接改写原文件，不保留 "_original" 备份。
                             exiftool 不建议这样做；更稳妥的流程是先确认
                             结果再单独删除备份文件
  -h, --help                 显示帮助

raw 文件的描述写入新生成的 XMP sidecar，raw 本身不被修改。
`)
}

// phasePrinter 把运行阶段统计打到 stderr（stdout 留给 RunReport JSON）。
type phasePrinter struct {
	W io.Writer
}

func (p phasePrinter) OnPhase(name string) {
	switch name {
	case "parse":
		fmt.Fprintln(p.W, "解析输入描述……")
	case "match":
		fmt.Fprintln(p.W, "按文件名 stem 搜索匹配文件……")
	case "write":
		fmt.Fprintln(p.W, "写入描述……")
	}
}

func (p phasePrinter) OnParsed(inputs int) {
	fmt.Fprintf(p.W, "共 %d 条描述待写入\n", inputs)
}

func (p phasePrinter) OnMatched(found, total int) {
	fmt.Fprintf(p.W, "找到 %d/%d 个待更新文件\n", found, total)
}

func (p phasePrinter) OnWritten(updated int) {
	fmt.Fprintf(p.W, "已更新 %d 个文件\n", updated)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：inputs=%d matched=%d updated=%d planned=%d skipped=%d failed=%d unmatched=%d\n",
			rr.Summary.Inputs, rr.Summary.Matched, rr.Summary.Updated, rr.Summary.Planned,
			rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Unmatched,
		)
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := it.Stem
			if key == "" {
				key = "<run>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（人读的走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：inputs=%d matched=%d updated=%d failed=%d unmatched=%d\n",
		rr.Summary.Inputs, rr.Summary.Matched, rr.Summary.Updated, rr.Summary.Failed, rr.Summary.Unmatched,
	)
}

func exitCode(rr domain.RunReport) int {
	code := exitOK
	for _, it := range rr.Items {
		switch it.ErrorCode {
		case domain.ErrCodeAmbiguous:
			return exitAmbiguous
		case domain.ErrCodeScanLimit:
			return exitScanLimit
		}
		if it.Status == domain.StatusFailed {
			code = exitFailed
		}
	}
	return code
}

func writeReportFile(searchDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Join(searchDir, ".imdesc"), "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
