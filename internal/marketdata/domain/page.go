package domain

import (
	"math"
	"strings"

	"github.com/wyfcoding/marketquery/pkg/errorx"
)

// MaxPageSize 单页最大条数
const MaxPageSize = 1000

// Direction 排序方向
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection 仅 "asc"（不区分大小写）为升序，其余一律降序
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}

// Sort 已解析到列名的排序条件
type Sort struct {
	Column    string
	Direction Direction
}

// SortFields 对外字段名到列名的白名单
type SortFields map[string]string

// PageRequest 分页请求
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

// Resolve 校验分页参数并解析排序列
func (p PageRequest) Resolve(fields SortFields) (ListQuery, error) {
	if p.Page < 0 || p.Page > math.MaxInt32 {
		return ListQuery{}, errorx.InvalidArgument("page out of range: %d", p.Page)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return ListQuery{}, errorx.InvalidArgument("size must be between 1 and %d: %d", MaxPageSize, p.Size)
	}
	column, ok := fields[p.SortBy]
	if !ok {
		return ListQuery{}, errorx.InvalidArgument("unsupported sort field: %s", p.SortBy)
	}
	return ListQuery{
		Offset: p.Page * p.Size,
		Limit:  p.Size,
		Sort:   Sort{Column: column, Direction: ParseDirection(p.Direction)},
	}, nil
}
