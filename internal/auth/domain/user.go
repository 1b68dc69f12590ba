// Package domain 调用方身份模型
package domain

import (
	"context"
	"time"
)

// User 持有 API Key 的调用方，由外部流程维护，网关只读
type User struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	APIKey    string    `json:"-"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveUserFinder 按 API Key 查找处于激活状态的用户
type ActiveUserFinder interface {
	// FindActiveByAPIKey 精确匹配；无匹配或用户已归档时返回 nil, nil
	FindActiveByAPIKey(ctx context.Context, apiKey string) (*User, error)
}

// UserRepository 用户持久化接口
type UserRepository interface {
	ActiveUserFinder
	// Upsert 按 API Key 幂等写入，仅用于开发环境初始化
	Upsert(ctx context.Context, user *User) error
}
