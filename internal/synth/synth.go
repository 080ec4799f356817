// Package synth 由命令表重建房间几何（地板/顶棚/墙面及其窗门）。
//
// 每个 SPACE 归入三种状态之一：
//   - NoShape：无可解析轮廓，跳过并记录 Issue；
//   - Detailed：围护面集合非空且每个面都带 POLYGON，逐面变换；
//   - Extruded：其余情况，轮廓按层高拉伸，逐边推断边界条件。
package synth

import (
	"context"
	"errors"
	"fmt"

	"bdlgeom/internal/bdl"
	"bdlgeom/pkg/contract"
)

// Options 控制重建的容差与缺省策略。
type Options struct {
	// Tolerance: 墙体 X/Y 锚点与轮廓顶点匹配的容差（模型单位）。
	Tolerance float64
	// DefaultHeight: SPACE 与 FLOOR 均未给出高度时的缺省层高。
	DefaultHeight float64
	// BuildingAzimuth: 非空时覆盖 BUILD-PARAMETERS.AZIMUTH。
	BuildingAzimuth *float64
	// Strict: 将不支持的形状由 Issue 升级为错误。
	Strict bool
}

// DefaultOptions 返回缺省选项（1mm 容差、10 单位层高）。
func DefaultOptions() Options {
	return Options{Tolerance: 0.001, DefaultHeight: 10}
}

// Issue 描述单个空间/面的非致命异常；Err 为 contract 中的哨兵错误。
type Issue struct {
	Space   string
	Surface string
	Err     error
	Msg     string
}

func (i Issue) Error() string {
	where := i.Space
	if i.Surface != "" {
		where += "/" + i.Surface
	}
	return fmt.Sprintf("%s: %v: %s", where, i.Err, i.Msg)
}

func (i Issue) Unwrap() error { return i.Err }

// Result 为单个命令表的重建结果。
type Result struct {
	Rooms  []contract.Room
	Issues []Issue
}

// Synthesizer 为无状态的几何重建器，可被多个 goroutine 共享。
type Synthesizer struct {
	opts Options
}

// New 创建 Synthesizer；零值字段回落到 DefaultOptions。
func New(opts Options) *Synthesizer {
	def := DefaultOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = def.DefaultHeight
	}
	return &Synthesizer{opts: opts}
}

// Build 遍历全部 FLOOR 及其 SPACE，按文件顺序产出房间。
// 无 FLOOR 时返回 ErrNoFloor；Strict 模式下遇到不支持的形状返回错误。
func (s *Synthesizer) Build(ctx context.Context, t *bdl.Table) (Result, error) {
	var res Result
	if t == nil {
		return res, fmt.Errorf("synth: nil table: %w", contract.ErrInvalidInput)
	}
	floors := t.Records(bdl.CmdFloor)
	if len(floors) == 0 {
		return res, fmt.Errorf("synth: %w", contract.ErrNoFloor)
	}
	bAz := s.buildingAzimuth(t)
	for _, fl := range floors {
		for _, sp := range bdl.Sorted(bdl.ChildrenOf(t, bdl.CmdFloor, fl.Name, bdl.CmdSpace)) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			b := &roomBuilder{s: s, t: t, floor: fl, space: sp, bAz: bAz}
			room, ok := b.build()
			res.Issues = append(res.Issues, b.issues...)
			if s.opts.Strict {
				for _, is := range b.issues {
					if errors.Is(is.Err, contract.ErrUnsupportedShape) {
						return res, fmt.Errorf("synth: %w", is)
					}
				}
			}
			if ok {
				res.Rooms = append(res.Rooms, room)
			}
		}
	}
	return res, nil
}

// buildingAzimuth: 配置覆盖 > BUILD-PARAMETERS.AZIMUTH > 0。
func (s *Synthesizer) buildingAzimuth(t *bdl.Table) float64 {
	if s.opts.BuildingAzimuth != nil {
		return *s.opts.BuildingAzimuth
	}
	for _, r := range t.Records(bdl.CmdBuildParameters) {
		if az, ok := t.Number(r, "AZIMUTH"); ok {
			return az
		}
	}
	return 0
}
