// Package mysql 参考数据的 gorm 仓储实现（mysql/postgres/sqlite 通用）
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/marketquery/internal/referencedata/domain"
	pkgdb "github.com/wyfcoding/marketquery/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type symbolRepository struct {
	db *gorm.DB
}

// NewSymbolRepository 创建交易对仓储
func NewSymbolRepository(db *gorm.DB) domain.Repository {
	return &symbolRepository{db: db}
}

func (r *symbolRepository) FindByName(ctx context.Context, name string) (*domain.Entry, error) {
	var m SymbolModel
	err := pkgdb.Conn(ctx, r.db).Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find symbol %q: %w", name, err)
	}
	return symbolToEntry(&m), nil
}

func (r *symbolRepository) Ensure(ctx context.Context, name string) (*domain.Entry, error) {
	err := pkgdb.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SymbolModel{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("ensure symbol %q: %w", name, err)
	}
	return r.FindByName(ctx, name)
}

type eventTypeRepository struct {
	db *gorm.DB
}

// NewEventTypeRepository 创建事件类型仓储
func NewEventTypeRepository(db *gorm.DB) domain.Repository {
	return &eventTypeRepository{db: db}
}

func (r *eventTypeRepository) FindByName(ctx context.Context, name string) (*domain.Entry, error) {
	var m EventTypeModel
	err := pkgdb.Conn(ctx, r.db).Where("type = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find event type %q: %w", name, err)
	}
	return eventTypeToEntry(&m), nil
}

func (r *eventTypeRepository) Ensure(ctx context.Context, name string) (*domain.Entry, error) {
	err := pkgdb.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&EventTypeModel{Type: name}).Error
	if err != nil {
		return nil, fmt.Errorf("ensure event type %q: %w", name, err)
	}
	return r.FindByName(ctx, name)
}
