// Package application 行情记录查询服务：引用解析、存在性校验、事务与分页
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/pkg/errorx"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/marketquery/pkg/metrics"
)

// publishTimeout 事件发布的上限，超时按发布失败处理
const publishTimeout = 500 * time.Millisecond

// Resolver 参考数据名称解析，未知名称返回 INVALID_REFERENCE 错误
type Resolver interface {
	Resolve(ctx context.Context, name string) (uint, error)
}

// Mapper 记录与对外表示之间的转换
type Mapper[R domain.Record, D any] struct {
	ToRecord func(D) R
	ToDTO    func(R) D
}

// RecordService 泛型记录服务，Ticker 与 Trade 各实例化一次
type RecordService[R domain.Record, D any] struct {
	entity     domain.Entity
	store      domain.RecordStore[R]
	symbols    Resolver
	eventTypes Resolver
	mapper     Mapper[R, D]
	publisher  domain.EventPublisher
	metrics    *metrics.Metrics
}

// NewRecordService 创建记录服务，publisher 与 m 可为 nil
func NewRecordService[R domain.Record, D any](
	entity domain.Entity,
	store domain.RecordStore[R],
	symbols, eventTypes Resolver,
	mapper Mapper[R, D],
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *RecordService[R, D] {
	return &RecordService[R, D]{
		entity:     entity,
		store:      store,
		symbols:    symbols,
		eventTypes: eventTypes,
		mapper:     mapper,
		publisher:  publisher,
		metrics:    m,
	}
}

// Entity 服务对应的实体描述
func (s *RecordService[R, D]) Entity() domain.Entity {
	return s.entity
}

// Create 解析引用后写入新记录，客户端提交的内部 ID 被忽略
func (s *RecordService[R, D]) Create(ctx context.Context, dto D) (D, error) {
	var zero D
	rec := s.mapper.ToRecord(dto)
	rec.SetID(0)
	if err := rec.Validate(); err != nil {
		return zero, err
	}

	var stored R
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.resolveRefs(ctx, rec); err != nil {
			return err
		}
		if s.entity.UniqueKey {
			exists, err := s.store.ExistsByKey(ctx, rec.BusinessKey())
			if err != nil {
				return err
			}
			if exists {
				return s.conflict(rec.BusinessKey())
			}
		}
		if err := s.store.Create(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return s.conflict(rec.BusinessKey())
			}
			return err
		}
		var err error
		stored, err = s.store.GetByID(ctx, rec.GetID())
		return err
	})
	if err != nil {
		return zero, s.wrap(err, "create")
	}

	out := s.mapper.ToDTO(stored)
	s.afterCommit(ctx, domain.ActionCreated, stored.BusinessKey(), out)
	return out, nil
}

// Get 按业务主键读取
func (s *RecordService[R, D]) Get(ctx context.Context, key int64) (D, error) {
	return s.read(ctx, key, func(ctx context.Context) (R, error) {
		return s.store.GetByKey(ctx, key)
	})
}

// GetByID 按内部 ID 读取
func (s *RecordService[R, D]) GetByID(ctx context.Context, id uint64) (D, error) {
	return s.read(ctx, int64(id), func(ctx context.Context) (R, error) {
		return s.store.GetByID(ctx, id)
	})
}

func (s *RecordService[R, D]) read(ctx context.Context, key int64, load func(ctx context.Context) (R, error)) (D, error) {
	var zero D
	rec, err := load(ctx)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return zero, errorx.NotFound("%s", s.entity.NotFoundMessage(key))
	}
	if err != nil {
		return zero, s.wrap(err, "get")
	}
	return s.mapper.ToDTO(rec), nil
}

// Update 全量覆盖已存在的记录，内部 ID 与创建时间保持不变
func (s *RecordService[R, D]) Update(ctx context.Context, dto D) (D, error) {
	var zero D
	rec := s.mapper.ToRecord(dto)
	key := rec.BusinessKey()
	if key <= 0 {
		return zero, errorx.InvalidArgument("%s is required", s.entity.KeyField)
	}
	if err := rec.Validate(); err != nil {
		return zero, err
	}

	var stored R
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetByKey(ctx, key)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return errorx.NotFound("%s", s.entity.NotFoundMessage(key))
		}
		if err != nil {
			return err
		}
		if err := s.resolveRefs(ctx, rec); err != nil {
			return err
		}
		rec.SetID(existing.GetID())
		if err := s.store.Replace(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return s.conflict(key)
			}
			return err
		}
		stored, err = s.store.GetByID(ctx, rec.GetID())
		return err
	})
	if err != nil {
		return zero, s.wrap(err, "update")
	}

	out := s.mapper.ToDTO(stored)
	s.afterCommit(ctx, domain.ActionUpdated, key, out)
	return out, nil
}

// Delete 先加锁确认存在再删除
func (s *RecordService[R, D]) Delete(ctx context.Context, key int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.store.ExistsByKey(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return errorx.NotFound("%s", s.entity.NotFoundMessage(key))
		}
		if err := s.store.DeleteByKey(ctx, key); err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return errorx.NotFound("%s", s.entity.NotFoundMessage(key))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.wrap(err, "delete")
	}

	s.afterCommit(ctx, domain.ActionDeleted, key, nil)
	return nil
}

// List 分页列出全部记录
func (s *RecordService[R, D]) List(ctx context.Context, req domain.PageRequest) (*PageDTO[D], error) {
	q, err := req.Resolve(s.entity.Sortable)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, req, q, "")
}

// ListBySymbol 分页列出指定交易对的记录
func (s *RecordService[R, D]) ListBySymbol(ctx context.Context, symbol string, req domain.PageRequest) (*PageDTO[D], error) {
	q, err := req.Resolve(s.entity.Sortable)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, req, q, symbol)
}

func (s *RecordService[R, D]) list(ctx context.Context, req domain.PageRequest, q domain.ListQuery, symbol string) (*PageDTO[D], error) {
	var (
		records []R
		total   int64
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if symbol != "" {
			id, err := s.symbols.Resolve(ctx, symbol)
			if err != nil {
				return err
			}
			q.SymbolID = id
		}
		var err error
		records, total, err = s.store.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, s.wrap(err, "list")
	}

	content := make([]D, 0, len(records))
	for _, rec := range records {
		content = append(content, s.mapper.ToDTO(rec))
	}
	return newPage(content, total, req.Page, req.Size), nil
}

// LatestBySymbol 返回交易对最近创建的一条记录
func (s *RecordService[R, D]) LatestBySymbol(ctx context.Context, symbol string) (D, error) {
	var (
		zero D
		rec  R
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		id, err := s.symbols.Resolve(ctx, symbol)
		if err != nil {
			return err
		}
		rec, err = s.store.LatestBySymbol(ctx, id)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return errorx.NotFound(s.entity.LatestNotFound, symbol)
		}
		return err
	})
	if err != nil {
		return zero, s.wrap(err, "latest")
	}
	return s.mapper.ToDTO(rec), nil
}

func (s *RecordService[R, D]) resolveRefs(ctx context.Context, rec R) error {
	refs := rec.Refs()
	symbolID, err := s.symbols.Resolve(ctx, refs.Symbol)
	if err != nil {
		return err
	}
	eventTypeID, err := s.eventTypes.Resolve(ctx, refs.EventType)
	if err != nil {
		return err
	}
	refs.SymbolID = symbolID
	refs.EventTypeID = eventTypeID
	return nil
}

func (s *RecordService[R, D]) conflict(key int64) error {
	return errorx.Conflict("%s with id %d already exists", s.entity.Noun, key)
}

// wrap 保留已分类的错误，其余视为内部错误
func (s *RecordService[R, D]) wrap(err error, op string) error {
	var coded *errorx.Error
	if errors.As(err, &coded) {
		return err
	}
	return errorx.Wrap(errorx.CodeInternal, err, "%s %s", op, s.entity.Name)
}

// afterCommit 记录指标并发布变更事件，发布失败不影响请求结果
func (s *RecordService[R, D]) afterCommit(ctx context.Context, action domain.Action, key int64, record any) {
	if s.metrics != nil {
		s.metrics.RecordMutationsTotal.WithLabelValues(s.entity.Name, string(action)).Inc()
	}
	if s.publisher == nil {
		return
	}

	event := &domain.RecordEvent{
		EventID:    uuid.NewString(),
		Entity:     s.entity.Name,
		Action:     action,
		Key:        key,
		Record:     record,
		OccurredAt: time.Now().UTC(),
	}
	// 事务已提交，调用方断开也要继续发布
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := "published"
	if err := s.publisher.Publish(pctx, event); err != nil {
		result = "failed"
		logger.Error(ctx, "failed to publish record event",
			"entity", s.entity.Name,
			"action", string(action),
			"key", key,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.EventsPublishedTotal.WithLabelValues(s.entity.Name, result).Inc()
	}
}
