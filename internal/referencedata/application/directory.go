// Package application 参考数据目录服务，负责名称到内部 ID 的解析
package application

import (
	"context"

	"github.com/wyfcoding/marketquery/internal/referencedata/domain"
	"github.com/wyfcoding/marketquery/pkg/errorx"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/marketquery/pkg/metrics"
)

// Directory 参考数据目录。只解析已存在的名称，不会在解析时创建条目。
type Directory struct {
	kind    domain.Kind
	repo    domain.Repository
	cache   domain.Cache
	metrics *metrics.Metrics
}

// NewDirectory 创建目录服务，cache 与 m 可为 nil
func NewDirectory(kind domain.Kind, repo domain.Repository, cache domain.Cache, m *metrics.Metrics) *Directory {
	return &Directory{
		kind:    kind,
		repo:    repo,
		cache:   cache,
		metrics: m,
	}
}

// Resolve 将名称解析为内部 ID；名称不存在时返回 INVALID_REFERENCE 错误
func (d *Directory) Resolve(ctx context.Context, name string) (uint, error) {
	entry, err := d.Lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// Lookup 按名称查找条目，优先读缓存
func (d *Directory) Lookup(ctx context.Context, name string) (*domain.Entry, error) {
	if d.cache != nil {
		cached, err := d.cache.Get(ctx, name)
		if err != nil {
			logger.Warn(ctx, "directory cache read failed, falling back to database",
				"directory", string(d.kind), "name", name, "error", err)
		} else if cached != nil {
			d.count("hit")
			return cached, nil
		}
	}

	entry, err := d.repo.FindByName(ctx, name)
	if err != nil {
		return nil, errorx.Wrap(errorx.CodeInternal, err, "resolve %s", d.kind.Label())
	}
	if entry == nil {
		d.count("unknown")
		return nil, errorx.InvalidReference("Invalid %s: %s", d.kind.Label(), name)
	}
	d.count("miss")

	// 以请求名称为 key，大小写不敏感的排序规则下规范名与请求名可能不同
	if d.cache != nil {
		if err := d.cache.Set(ctx, name, entry); err != nil {
			logger.Warn(ctx, "directory cache write failed",
				"directory", string(d.kind), "name", name, "error", err)
		}
	}
	return entry, nil
}

// Ensure 幂等写入条目，仅用于启动初始化
func (d *Directory) Ensure(ctx context.Context, name string) (*domain.Entry, error) {
	entry, err := d.repo.Ensure(ctx, name)
	if err != nil {
		return nil, errorx.Wrap(errorx.CodeInternal, err, "ensure %s", d.kind.Label())
	}
	return entry, nil
}

func (d *Directory) count(result string) {
	if d.metrics != nil {
		d.metrics.DirectoryLookupsTotal.WithLabelValues(string(d.kind), result).Inc()
	}
}
