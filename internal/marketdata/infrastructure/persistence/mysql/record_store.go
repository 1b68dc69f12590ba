// Package mysql 行情记录的 gorm 仓储实现（mysql/postgres/sqlite 通用）
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	pkgdb "github.com/wyfcoding/marketquery/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordStore 泛型仓储，R 为领域记录，M 为表映射
type recordStore[R domain.Record, M any] struct {
	db        *gorm.DB
	keyColumn string
	toModel   func(R) *M
	toRecord  func(*M) R
}

// NewTickerStore 创建 Ticker 仓储，业务主键即内部 ID
func NewTickerStore(db *gorm.DB) domain.RecordStore[*domain.Ticker] {
	return &recordStore[*domain.Ticker, TickerModel]{
		db:        db,
		keyColumn: "id",
		toModel:   toTickerModel,
		toRecord:  toTicker,
	}
}

// NewTradeStore 创建 Trade 仓储，业务主键为 trade_id
func NewTradeStore(db *gorm.DB) domain.RecordStore[*domain.Trade] {
	return &recordStore[*domain.Trade, TradeModel]{
		db:        db,
		keyColumn: "trade_id",
		toModel:   toTradeModel,
		toRecord:  toTrade,
	}
}

func (s *recordStore[R, M]) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return pkgdb.Transaction(ctx, s.db, fn)
}

func (s *recordStore[R, M]) conn(ctx context.Context) *gorm.DB {
	return pkgdb.Conn(ctx, s.db)
}

// withRefs 展开交易对与事件类型名称
func (s *recordStore[R, M]) withRefs(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Preload("Symbol").Preload("EventType")
}

func (s *recordStore[R, M]) Create(ctx context.Context, rec R) error {
	m := s.toModel(rec)
	if err := s.conn(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("create record: %w", err)
	}
	created := s.toRecord(m)
	rec.SetID(created.GetID())
	return nil
}

func (s *recordStore[R, M]) Replace(ctx context.Context, rec R) error {
	res := s.conn(ctx).Model(new(M)).
		Where("id = ?", rec.GetID()).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(s.toModel(rec))
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("replace record %d: %w", rec.GetID(), res.Error)
	}
	return nil
}

func (s *recordStore[R, M]) GetByID(ctx context.Context, id uint64) (R, error) {
	return s.take(ctx, "id = ?", id)
}

func (s *recordStore[R, M]) GetByKey(ctx context.Context, key int64) (R, error) {
	return s.take(ctx, s.keyColumn+" = ?", key)
}

func (s *recordStore[R, M]) take(ctx context.Context, query string, arg any) (R, error) {
	var zero R
	m := new(M)
	err := s.withRefs(ctx).Where(query, arg).Take(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, domain.ErrRecordNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("load record: %w", err)
	}
	return s.toRecord(m), nil
}

func (s *recordStore[R, M]) ExistsByKey(ctx context.Context, key int64) (bool, error) {
	var ids []uint64
	err := s.conn(ctx).Model(new(M)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(s.keyColumn+" = ?", key).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, fmt.Errorf("check record %d: %w", key, err)
	}
	return len(ids) > 0, nil
}

func (s *recordStore[R, M]) DeleteByKey(ctx context.Context, key int64) error {
	res := s.conn(ctx).Where(s.keyColumn+" = ?", key).Delete(new(M))
	if res.Error != nil {
		return fmt.Errorf("delete record %d: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (s *recordStore[R, M]) List(ctx context.Context, q domain.ListQuery) ([]R, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.SymbolID != 0 {
			return db.Where("symbol_id = ?", q.SymbolID)
		}
		return db
	}

	var total int64
	if err := filter(s.conn(ctx).Model(new(M))).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	if total == 0 || int64(q.Offset) >= total {
		return []R{}, total, nil
	}

	desc := q.Sort.Direction == domain.Desc
	var models []M
	err := filter(s.withRefs(ctx)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	records := make([]R, 0, len(models))
	for i := range models {
		records = append(records, s.toRecord(&models[i]))
	}
	return records, total, nil
}

func (s *recordStore[R, M]) LatestBySymbol(ctx context.Context, symbolID uint) (R, error) {
	var zero R
	var models []M
	err := s.withRefs(ctx).
		Where("symbol_id = ?", symbolID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return zero, fmt.Errorf("latest record: %w", err)
	}
	if len(models) == 0 {
		return zero, domain.ErrRecordNotFound
	}
	return s.toRecord(&models[0]), nil
}
