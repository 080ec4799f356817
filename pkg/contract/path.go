package contract

import (
	"path"
	"strings"
)

// NormalizeFileID 规范化路径，统一为跨平台稳定的 FileID。
// 规则：
// - 使用正斜杠分隔符
// - 清理多余分隔符与路径片段（.、..）
// - 保留相对/绝对语义，不做隐式绝对化
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

// ArtifactFor 由输入 FileID 与编码扩展名推导工件标识。
// ext 为空时返回原 FileID；ext 不含点时自动补齐。
func ArtifactFor(id FileID, ext string) ArtifactID {
	if ext == "" {
		return ArtifactID(id)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ArtifactID(string(id) + ext)
}
