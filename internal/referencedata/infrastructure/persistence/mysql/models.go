package mysql

import "github.com/wyfcoding/marketquery/internal/referencedata/domain"

// SymbolModel 交易对表映射
type SymbolModel struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;type:varchar(50);uniqueIndex;not null"`
}

func (SymbolModel) TableName() string { return "symbol" }

// EventTypeModel 事件类型表映射
type EventTypeModel struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Type string `gorm:"column:type;type:varchar(50);uniqueIndex;not null"`
}

func (EventTypeModel) TableName() string { return "event_type" }

// Models 返回需要迁移的模型
func Models() []any {
	return []any{&SymbolModel{}, &EventTypeModel{}}
}

func symbolToEntry(m *SymbolModel) *domain.Entry {
	if m == nil {
		return nil
	}
	return &domain.Entry{ID: m.ID, Name: m.Name}
}

func eventTypeToEntry(m *EventTypeModel) *domain.Entry {
	if m == nil {
		return nil
	}
	return &domain.Entry{ID: m.ID, Name: m.Type}
}
