package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "bdlgeom/internal/config"
	"bdlgeom/internal/diag"
	"bdlgeom/internal/pipeline"
	ejson "bdlgeom/plugins/encoder/jsonrooms"
)

// 退出码：0 成功；1 运行期失败；3 配置/装配失败。
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 3
)

// exitError 携带退出码，由 run 统一转换。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configFail(err error) error  { return &exitError{code: exitConfig, err: err} }
func runtimeFail(err error) error { return &exitError{code: exitRuntime, err: err} }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run 执行 CLI 并返回退出码。
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// cobra 自身的参数/flag 错误
	fprintf(stderr, "参数错误: %v\n", err)
	return exitConfig
}

type rootFlags struct {
	config      string
	concurrency int
	logLevel    string
	strict      bool
	keepGoing   bool
	metricsFile string
	status      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:           "bdlgeom [inputs...]",
		Short:         "读取 DOE-2 BDL/INP 文件并重建房间三维几何",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, f, args, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件路径（YAML/JSON）；缺省读取 ./config.yaml 或 ./config.json（若存在）")
	fl.IntVar(&f.concurrency, "concurrency", 0, "并发度（覆盖配置）")
	fl.StringVar(&f.logLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	fl.BoolVar(&f.strict, "strict", false, "不支持的空间形状视为文件级错误")
	fl.BoolVar(&f.keepGoing, "keep-going", false, "单个文件失败时继续处理其余文件")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "运行结束后写出 Prometheus 文本格式指标")
	fl.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")

	cmd.AddCommand(newInitCmd(stdout, stderr), newSchemaCmd(stdout))
	return cmd
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [dir]",
		Short: "在指定目录生成默认 config.yaml 与 .env 模板（已存在则跳过，不覆盖）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			written, err := cfgpkg.WriteTemplate(dir)
			if err != nil {
				fprintf(stderr, "生成默认配置失败: %v\n", err)
				return configFail(err)
			}
			for _, p := range written {
				fprintf(stdout, "%s\n", p)
			}
			return nil
		},
	}
}

func newSchemaCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "输出 json 编码器使用的 JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := stdout.Write(ejson.Schema())
			return err
		},
	}
}

func runPipeline(cmd *cobra.Command, f rootFlags, args []string, stderr io.Writer) error {
	start := time.Now()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := cfgpkg.LoadDotEnv(".env"); err != nil {
		fprintf(stderr, "提示：.env 读取失败（已跳过）：%v\n", err)
	}
	cfg, err := cfgpkg.Load(f.config)
	if err != nil {
		fprintf(stderr, "配置解析失败: %v\n", err)
		return configFail(err)
	}

	// CLI 覆盖
	fl := cmd.Flags()
	if fl.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fl.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fl.Changed("strict") {
		cfg.Strict = f.strict
	}
	if fl.Changed("keep-going") {
		cfg.KeepGoing = f.keepGoing
	}
	if fl.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if len(args) > 0 {
		cfg.Inputs = args
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		dumpConfig(stderr, cfg)
		return configFail(err)
	}

	logger := diag.NewLogger("", cfg.Logging.Level, cfg.Logging.Dir)
	defer func() { _ = logger.Sync() }()

	if err := preflightCheckOutputDir(cfg); err != nil {
		fprintf(stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "preflight failed", &start)
		return configFail(err)
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "assemble failed", &start)
		return configFail(err)
	}
	if c, ok := comp.Writer.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				fprintf(stderr, "关闭输出失败: %v\n", cerr)
			}
		}()
	}
	set.Terminal = diag.NewTerminal(stderr, f.status)

	logger.DebugStart("config", "effective", "", map[string]string{
		"inputs_count": strconv.Itoa(len(cfg.Inputs)),
		"concurrency":  strconv.Itoa(cfg.Concurrency),
		"strict":       strconv.FormatBool(cfg.Strict),
		"keep_going":   strconv.FormatBool(cfg.KeepGoing),
		"reader":       cfg.Components.Reader,
		"encoder":      cfg.Components.Encoder,
		"writer":       cfg.Components.Writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := pipeline.Run(ctx, comp, set, logger)
	writeMetrics(cfg.MetricsFile, stderr)
	if err != nil {
		code := string(diag.Classify(err))
		logger.ErrorWithKV("pipeline", code, "first error: "+err.Error(), &start, "", map[string]string{
			"files":  strconv.Itoa(len(rep.Files)),
			"failed": strconv.Itoa(rep.Failed()),
		})
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		return runtimeFail(err)
	}
	logger.InfoFinish("pipeline", "done", start, int64(rep.Rooms()))
	return nil
}

func writeMetrics(path string, stderr io.Writer) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := diag.WriteMetrics(path); err != nil {
		fprintf(stderr, "指标写出失败: %v\n", err)
	}
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return
	}
	fprintf(w, "有效配置:\n%s\n", b)
}

// preflightCheckOutputDir: 当 Writer 使用文件系统实现(fs)时，启动前检查输出目录可写性。
// 规则：
// - 若目录已存在：尝试创建并删除临时文件；失败则判为不可写。
// - 若目录不存在：检查父目录是否可写（尝试在父目录创建并删除临时目录）。
// 仅针对 fs writer 生效；其他 writer 跳过。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	name := cfg.Components.Writer
	if strings.TrimSpace(name) == "" {
		name = cfgpkg.Defaults().Components.Writer
	}
	if name != "fs" {
		return nil
	}
	dir, _ := cfg.Options.Writer["fs"]["output_dir"].(string)
	dir = strings.TrimSpace(dir)
	if dir == "" {
		// 未指定时让装配阶段按实现自行报错
		return nil
	}
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	} else if err == nil {
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	} else if !os.IsNotExist(err) {
		return err
	}
	// 目录不存在时检查最近的已存在祖先目录
	parent := filepath.Dir(dir)
	for {
		st, err := os.Stat(parent)
		if err == nil {
			if !st.IsDir() {
				return fmt.Errorf("父路径不是目录: %s", parent)
			}
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
		next := filepath.Dir(parent)
		if next == parent {
			return fmt.Errorf("无法确定父目录: %s", dir)
		}
		parent = next
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}
