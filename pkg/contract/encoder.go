package contract

import (
	"context"
	"io"
)

// Encoder: 将单文件重建结果序列化为字节流。
// 约束：
//  1. 纯计算，不做 I/O；
//  2. 输出确定（同一 Building 多次编码字节一致）；
//  3. Ext 返回工件扩展名（含点），由流水线拼接到 ArtifactID。
type Encoder interface {
	Encode(ctx context.Context, b Building) (io.Reader, error)
	Ext() string
}
