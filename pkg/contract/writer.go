package contract

import (
	"context"
	"io"
)

// ArtifactID: 结果工件标识。通常为 FileID 加编码器扩展名（如 "a/b.inp.json"）。
type ArtifactID = FileID

// Writer: 将编码结果以流式方式持久化到目标介质（文件系统/SQLite 等）。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 按字节透传，不读取/修改业务内容；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
