// Package jsonrooms 将重建结果编码为 JSON 文档，可选按内嵌 Schema 校验。
package jsonrooms

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"bdlgeom/pkg/contract"
)

//go:embed schema.json
var schemaJSON []byte

// Schema 返回内嵌的 JSON Schema 原文。
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Options 为 JSON 编码器配置。
type Options struct {
	// Indent: 缩进空格数；0 为紧凑输出。
	Indent int `json:"indent"`
	// Precision: 坐标保留小数位；nil 时为 9，负数不取整。
	Precision *int `json:"precision,omitempty"`
	// Validate: 编码后按内嵌 Schema 校验，失败返回 ErrSchemaInvalid。
	Validate bool `json:"validate"`
}

type encoder struct {
	indent    int
	precision int
	schema    *gojsonschema.Schema
}

// New 从原样 JSON Options 创建编码器（严格解码，拒绝未知字段）。
func New(raw json.RawMessage) (contract.Encoder, error) {
	var opts Options
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return nil, fmt.Errorf("encoder json: %w", err)
		}
	}
	if opts.Indent < 0 || opts.Indent > 8 {
		return nil, fmt.Errorf("encoder json: indent out of range: %w", contract.ErrInvalidInput)
	}
	e := &encoder{indent: opts.Indent, precision: 9}
	if opts.Precision != nil {
		e.precision = *opts.Precision
	}
	if opts.Validate {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
		if err != nil {
			return nil, fmt.Errorf("encoder json: load schema: %w", err)
		}
		e.schema = s
	}
	return e, nil
}

func (e *encoder) Ext() string { return ".json" }

// Encode 输出确定的 JSON 字节流（结尾换行）。
func (e *encoder) Encode(ctx context.Context, b contract.Building) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", e.indent))
	}
	if err := enc.Encode(b.Normalized(e.precision)); err != nil {
		return nil, fmt.Errorf("encoder json: %w", err)
	}
	if e.schema != nil {
		if err := Validate(e.schema, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// Validate 校验文档，失败时将全部错误拼接并包装 ErrSchemaInvalid。
func Validate(s *gojsonschema.Schema, doc []byte) error {
	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("encoder json: validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, len(res.Errors()))
	for i, d := range res.Errors() {
		msgs[i] = d.String()
	}
	return fmt.Errorf("%w: %s", contract.ErrSchemaInvalid, strings.Join(msgs, "; "))
}

var _ contract.Encoder = (*encoder)(nil)
