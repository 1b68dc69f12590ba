// Package domain 行情记录（Ticker、Trade）领域模型与仓储契约
package domain

import (
	"context"
	"errors"
)

var (
	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey 业务主键冲突
	ErrDuplicateKey = errors.New("duplicate business key")
)

// References 记录引用的交易对与事件类型。写入时只使用 ID，读取时名称由仓储展开。
type References struct {
	SymbolID    uint
	Symbol      string
	EventTypeID uint
	EventType   string
}

// Record Ticker 与 Trade 的公共行为
type Record interface {
	GetID() uint64
	SetID(id uint64)
	// BusinessKey 调用方使用的业务主键
	BusinessKey() int64
	Refs() *References
	// Validate 写入前校验
	Validate() error
}

// ListQuery 分页查询条件，SymbolID 为 0 时不过滤
type ListQuery struct {
	SymbolID uint
	Offset   int
	Limit    int
	Sort     Sort
}

// RecordStore 行情记录仓储。未找到统一返回 ErrRecordNotFound。
type RecordStore[R Record] interface {
	// WithTx 在事务中执行 fn，事务通过 ctx 传递
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, rec R) error
	// Replace 全量覆盖除内部 ID 与创建时间外的字段
	Replace(ctx context.Context, rec R) error

	GetByID(ctx context.Context, id uint64) (R, error)
	GetByKey(ctx context.Context, key int64) (R, error)
	// ExistsByKey 存在性检查，支持的数据库上加行锁
	ExistsByKey(ctx context.Context, key int64) (bool, error)
	DeleteByKey(ctx context.Context, key int64) error

	List(ctx context.Context, q ListQuery) ([]R, int64, error)
	// LatestBySymbol 按创建时间倒序取第一条，创建时间相同时取 ID 最大者
	LatestBySymbol(ctx context.Context, symbolID uint) (R, error)
}
