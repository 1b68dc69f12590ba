package main

import (
	"context"
	"fmt"

	authdomain "github.com/wyfcoding/marketquery/internal/auth/domain"
	authmysql "github.com/wyfcoding/marketquery/internal/auth/infrastructure/persistence/mysql"
	mdmysql "github.com/wyfcoding/marketquery/internal/marketdata/infrastructure/persistence/mysql"
	refapp "github.com/wyfcoding/marketquery/internal/referencedata/application"
	refmysql "github.com/wyfcoding/marketquery/internal/referencedata/infrastructure/persistence/mysql"
	"github.com/wyfcoding/marketquery/pkg/config"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"gorm.io/gorm"
)

// migrate 参考数据表需先于行情表创建
func migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(refmysql.Models()...); err != nil {
		return fmt.Errorf("migrate reference data: %w", err)
	}
	if err := gdb.AutoMigrate(&authmysql.UserModel{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := gdb.AutoMigrate(mdmysql.Models()...); err != nil {
		return fmt.Errorf("migrate market data: %w", err)
	}
	return nil
}

// seed 幂等写入配置中的基础数据，用户只在开发环境写入
func seed(ctx context.Context, cfg *config.Config, symbols, eventTypes *refapp.Directory, users authdomain.UserRepository) error {
	for _, name := range cfg.Bootstrap.Symbols {
		if _, err := symbols.Ensure(ctx, name); err != nil {
			return fmt.Errorf("seed symbol %s: %w", name, err)
		}
	}
	for _, name := range cfg.Bootstrap.EventTypes {
		if _, err := eventTypes.Ensure(ctx, name); err != nil {
			return fmt.Errorf("seed event type %s: %w", name, err)
		}
	}

	if !cfg.IsDev() {
		if len(cfg.Bootstrap.Users) > 0 {
			logger.Warn(ctx, "Skipping bootstrap users outside dev environment", "count", len(cfg.Bootstrap.Users))
		}
		return nil
	}
	for _, u := range cfg.Bootstrap.Users {
		user := &authdomain.User{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			APIKey:    u.APIKey,
			Active:    u.Active,
		}
		if err := users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	logger.Info(ctx, "Bootstrap data seeded",
		"symbols", len(cfg.Bootstrap.Symbols),
		"event_types", len(cfg.Bootstrap.EventTypes),
		"users", len(cfg.Bootstrap.Users),
	)
	return nil
}
