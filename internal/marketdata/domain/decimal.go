package domain

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/marketquery/pkg/errorx"
)

type decimalField struct {
	name  string
	value string
}

// validateDecimals 十进制字段按原字符串存储，这里只校验可解析，空串视为未提供
func validateDecimals(fields ...decimalField) error {
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := decimal.NewFromString(f.value); err != nil {
			return errorx.InvalidArgument("%s is not a valid decimal: %q", f.name, f.value)
		}
	}
	return nil
}
