package contract

import "errors"

// 最小错误分类（用于上层策略判定与日志/退出码汇总）。
var (
	// ErrParse: 记录块结构非法（引号未闭合、缺少命令关键字）。整文件失败。
	ErrParse = errors.New("bdl parse error")
	// ErrNoFloor: 命令表中没有任何 FLOOR，无可重建内容。整文件失败。
	ErrNoFloor = errors.New("no FLOOR records")
	// ErrUnsupportedShape: SPACE 使用 BOX 等速记形状；仅该空间失败。
	ErrUnsupportedShape = errors.New("unsupported space shape")
	// ErrDegenerateFootprint: SPACE 无可解析的多边形轮廓；该空间跳过。
	ErrDegenerateFootprint = errors.New("degenerate footprint")
	// ErrAnchorUnresolved: 墙体锚点无法映射到任何轮廓边；该墙分类跳过。
	ErrAnchorUnresolved = errors.New("wall anchor unresolved")
	// ErrSchemaInvalid: 编码结果未通过 JSON Schema 校验。
	ErrSchemaInvalid = errors.New("schema invalid")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvalidInput: 调用参数非法。
	ErrInvalidInput = errors.New("invalid input")
)
