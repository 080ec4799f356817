// Package yamlrooms 将重建结果编码为 YAML 文档。
package yamlrooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"bdlgeom/pkg/contract"
)

// Options 为 YAML 编码器配置。
type Options struct {
	// Indent: 缩进空格数；0 时为 2。
	Indent int `json:"indent"`
	// Precision: 坐标保留小数位；nil 时为 9，负数不取整。
	Precision *int `json:"precision,omitempty"`
	// FlowPoints: 点坐标以 [x, y, z] 行内形式输出。缺省 true。
	FlowPoints *bool `json:"flow_points,omitempty"`
}

type encoder struct {
	indent    int
	precision int
	flow      bool
}

// New 从原样 JSON Options 创建编码器（严格解码，拒绝未知字段）。
func New(raw json.RawMessage) (contract.Encoder, error) {
	var opts Options
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return nil, fmt.Errorf("encoder yaml: %w", err)
		}
	}
	e := &encoder{indent: 2, precision: 9, flow: opts.FlowPoints == nil || *opts.FlowPoints}
	if opts.Indent > 0 {
		e.indent = opts.Indent
	}
	if opts.Precision != nil {
		e.precision = *opts.Precision
	}
	return e, nil
}

func (e *encoder) Ext() string { return ".yaml" }

func (e *encoder) Encode(ctx context.Context, b contract.Building) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := node.Encode(b.Normalized(e.precision)); err != nil {
		return nil, fmt.Errorf("encoder yaml: %w", err)
	}
	if e.flow {
		flowPoints(&node)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(e.indent)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoder yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoder yaml: %w", err)
	}
	return &buf, nil
}

// flowPoints 将纯标量序列（即坐标点）改为行内风格。
func flowPoints(n *yaml.Node) {
	if n.Kind == yaml.SequenceNode && len(n.Content) > 0 {
		scalar := true
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				scalar = false
				break
			}
		}
		if scalar {
			n.Style = yaml.FlowStyle
			return
		}
	}
	for _, c := range n.Content {
		flowPoints(c)
	}
}

var _ contract.Encoder = (*encoder)(nil)
