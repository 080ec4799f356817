package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"bdlgeom/internal/bdl"
	"bdlgeom/internal/diag"
	"bdlgeom/internal/synth"
	"bdlgeom/pkg/contract"
)

// - 单点并发：仅此层管理并发与背压；Reader/解析/重建/编码/写出均为同步组件。
// - 文件粒度：每个输入文件独立解析并写出一个工件，文件之间无共享状态。
// - 首错取消：默认记录首个文件级错误并 cancel 整体；排空后返回该错误。
//   KeepGoing=true 时失败文件被记录，其余文件继续，最终返回合并错误。

// Synthesizer 为命令表到房间几何的重建器（*synth.Synthesizer 满足此接口）。
type Synthesizer interface {
	Build(ctx context.Context, t *bdl.Table) (synth.Result, error)
}

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader  contract.Reader
	Synth   Synthesizer
	Encoder contract.Encoder
	Writer  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Inputs      []string
	Concurrency int
	// KeepGoing: 单文件失败不取消其余文件。
	KeepGoing bool
	// Terminal: 可选的终端进度提示。
	Terminal *diag.Terminal
}

// FileReport 为单个输入文件的处理结果。
type FileReport struct {
	FileID   contract.FileID
	Artifact contract.ArtifactID
	Rooms    int
	Issues   int
	Err      error
}

// Report 汇总一次运行的全部文件结果（按 FileID 排序）。
type Report struct {
	Files []FileReport
}

// Rooms 返回成功文件的房间总数。
func (r Report) Rooms() int {
	n := 0
	for _, f := range r.Files {
		n += f.Rooms
	}
	return n
}

// Issues 返回异常总数。
func (r Report) Issues() int {
	n := 0
	for _, f := range r.Files {
		n += f.Issues
	}
	return n
}

// Failed 返回失败文件数。
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

type job struct {
	id  contract.FileID
	src []byte
}

type runner struct {
	comp Components
	log  *diag.Logger
	term *diag.Terminal
}

// Run 执行完整流水线：Reader → bdl.Parse → Synth → Encoder → Writer。
// 约束：
// - Reader 在单独的 goroutine 中顺序遍历，文件内容整体读入后投递给工作者；
// - 工作者数量为 Concurrency（<=0 视为 1），通道容量 2×并发度；
// - 返回的 Report 即使出错也包含已完成文件的结果。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Report, error) {
	if err := sanity(comp); err != nil {
		return Report{}, fmt.Errorf("sanity: %w", err)
	}
	if logger == nil {
		logger = diag.NewNop()
	}
	n := set.Concurrency
	if n <= 0 {
		n = 1
	}
	r := &runner{comp: comp, log: logger, term: set.Terminal}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runStart := time.Now()
	r.term.RunStart(n, comp.Encoder.Ext(), len(set.Inputs))
	rt := logger.StartWithKV("pipeline", "run", "", map[string]string{
		"concurrency": strconv.Itoa(n),
		"inputs":      strconv.Itoa(len(set.Inputs)),
	})

	// 有界通道：默认 2×并发度，形成自然背压
	jobs := make(chan job, n*2)
	results := make(chan FileReport, n*2)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- r.process(ctx, j)
			}
		}()
	}

	readErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		readErr <- comp.Reader.Iterate(ctx, set.Inputs, func(id contract.FileID, rc io.ReadCloser) error {
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", id, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- job{id: id, src: b}:
				return nil
			}
		})
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		rep      Report
		firstErr error
		errs     []error
	)
	for fr := range results {
		rep.Files = append(rep.Files, fr)
		if fr.Err == nil {
			continue
		}
		if set.KeepGoing {
			errs = append(errs, fr.Err)
			continue
		}
		if firstErr == nil {
			firstErr = fr.Err
			cancel()
		}
	}
	rerr := <-readErr
	sort.Slice(rep.Files, func(i, j int) bool { return rep.Files[i].FileID < rep.Files[j].FileID })

	err := firstErr
	if err == nil && rerr != nil {
		code := diag.Classify(rerr)
		logger.ErrorWith("reader", string(code), "iterate failed: "+rerr.Error(), rt.Since(), "")
		diag.IncOp("reader", "error", "error")
		if code != diag.CodeUnknown {
			diag.IncError("reader", string(code))
		}
		err = fmt.Errorf("reader: %w", rerr)
	}
	if err == nil && len(errs) > 0 {
		err = errors.Join(errs...)
	}
	r.term.RunFinish(err == nil, time.Since(runStart))
	if err != nil {
		diag.IncOp("pipeline", "error", "error")
		return rep, err
	}
	rt.Finish("run", int64(len(rep.Files)))
	diag.IncOp("pipeline", "finish", "success")
	return rep, nil
}

// process 在单个工作者内完成一个文件的全部阶段。
func (r *runner) process(ctx context.Context, j job) (fr FileReport) {
	fr.FileID = j.id
	fid := string(j.id)
	start := time.Now()
	defer func() {
		r.term.FileFinish(fid, fr.Err == nil, fr.Rooms, fr.Issues, time.Since(start))
	}()
	if err := ctx.Err(); err != nil {
		fr.Err = err
		return fr
	}

	pt := r.log.StartWith("parser", "parse", fid)
	tb, err := bdl.Parse(string(j.src))
	if err != nil {
		var kv map[string]string
		var pe *bdl.ParseError
		if errors.As(err, &pe) {
			kv = map[string]string{"line": strconv.Itoa(pe.Line)}
		}
		fr.Err = r.fail("parser", "parse failed", pt, fid, kv, err)
		return fr
	}
	pt.Finish("parse", int64(tb.Len()))
	diag.IncOp("parser", "finish", "success")

	st := r.log.StartWith("synth", "build", fid)
	res, err := r.comp.Synth.Build(ctx, tb)
	for _, is := range res.Issues {
		code := diag.Classify(is)
		r.log.Warn("synth", string(code), is.Error(), fid, map[string]string{
			"space":   is.Space,
			"surface": is.Surface,
		})
		diag.IncIssue(string(code))
	}
	fr.Issues = len(res.Issues)
	if err != nil {
		fr.Err = r.fail("synth", "build failed", st, fid, nil, err)
		return fr
	}
	st.Finish("build", int64(len(res.Rooms)))
	diag.IncOp("synth", "finish", "success")

	et := r.log.StartWith("encoder", "encode", fid)
	rd, err := r.comp.Encoder.Encode(ctx, contract.Building{FileID: j.id, Rooms: res.Rooms})
	if err != nil {
		fr.Err = r.fail("encoder", "encode failed", et, fid, nil, err)
		return fr
	}
	et.Finish("encode", int64(len(res.Rooms)))
	diag.IncOp("encoder", "finish", "success")

	artifact := contract.ArtifactFor(j.id, r.comp.Encoder.Ext())
	wt := r.log.StartWithKV("writer", "write", fid, map[string]string{"artifact": string(artifact)})
	if err := r.comp.Writer.Write(ctx, artifact, rd); err != nil {
		fr.Err = r.fail("writer", "write failed", wt, fid, nil, err)
		return fr
	}
	wt.Finish("write", 1)
	diag.IncOp("writer", "finish", "success")

	fr.Artifact = artifact
	fr.Rooms = len(res.Rooms)
	diag.AddRooms(fr.Rooms)
	return fr
}

// fail 记录阶段错误与指标并返回带阶段前缀的包装错误。
func (r *runner) fail(comp, msg string, t *diag.Timer, fid string, kv map[string]string, err error) error {
	code := diag.Classify(err)
	r.log.ErrorWithKV(comp, string(code), msg+": "+err.Error(), t.Since(), fid, kv)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
	return fmt.Errorf("%s %s: %w", comp, fid, err)
}

func sanity(c Components) error {
	var missing []string
	if c.Reader == nil {
		missing = append(missing, "reader")
	}
	if c.Synth == nil {
		missing = append(missing, "synth")
	}
	if c.Encoder == nil {
		missing = append(missing, "encoder")
	}
	if c.Writer == nil {
		missing = append(missing, "writer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing components %v", contract.ErrInvalidInput, missing)
	}
	return nil
}
