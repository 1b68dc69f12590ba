// Package mysql 用户表的 gorm 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/marketquery/internal/auth/domain"
	pkgdb "github.com/wyfcoding/marketquery/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserModel 用户表映射
type UserModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	FirstName string    `gorm:"column:first_name;type:varchar(100)"`
	LastName  string    `gorm:"column:last_name;type:varchar(100)"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	APIKey    string    `gorm:"column:api_key;type:varchar(128);uniqueIndex;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func toUserModel(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}
	return &UserModel{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		APIKey:    u.APIKey,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUser(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		APIKey:    m.APIKey,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindActiveByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	var m UserModel
	err := pkgdb.Conn(ctx, r.db).
		Where("api_key = ? AND active = ?", apiKey, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active user: %w", err)
	}
	// MySQL 默认排序规则比较时忽略大小写，API Key 必须逐字节相等
	if m.APIKey != apiKey {
		return nil, nil
	}
	return toUser(&m), nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	err := pkgdb.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "active", "updated_at"}),
	}).Create(toUserModel(user)).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
