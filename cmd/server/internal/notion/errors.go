package notion

import "errors"

var (
	// ErrNotFound 所需的页面/数据库不存在
	ErrNotFound = errors.New("notion: not found")

	// ErrBadEnvelope 工具调用响应信封缺少预期字段或载荷不是合法 JSON
	ErrBadEnvelope = errors.New("notion: malformed tool response envelope")
)
