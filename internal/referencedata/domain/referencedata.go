// Package domain 参考数据（交易对、事件类型）领域模型
package domain

import "context"

// Kind 参考数据目录类型
type Kind string

const (
	KindSymbol    Kind = "symbol"
	KindEventType Kind = "event_type"
)

// Label 面向调用方的名称，用于错误信息
func (k Kind) Label() string {
	switch k {
	case KindEventType:
		return "event type"
	default:
		return string(k)
	}
}

// Entry 参考数据条目，创建后不可变，不会被删除
type Entry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Repository 参考数据持久化接口
type Repository interface {
	// FindByName 按名称精确查找，不存在时返回 nil, nil
	FindByName(ctx context.Context, name string) (*Entry, error)
	// Ensure 不存在时创建，仅用于启动初始化
	Ensure(ctx context.Context, name string) (*Entry, error)
}

// Cache 名称到条目的只读缓存
type Cache interface {
	// Get 未命中时返回 nil, nil
	Get(ctx context.Context, name string) (*Entry, error)
	// Set 以查询时使用的 name 为 key 写入条目
	Set(ctx context.Context, name string, entry *Entry) error
}
