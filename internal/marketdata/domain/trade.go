package domain

import (
	"time"

	"github.com/wyfcoding/marketquery/pkg/errorx"
)

// Trade 逐笔成交，TradeID 为业务主键
type Trade struct {
	ID      uint64
	TradeID int64
	References

	EventTimestamp     int64
	Price              string
	Quantity           string
	TradeTime          int64
	IsBuyerMarketMaker bool
	CreatedAt          time.Time
}

func (t *Trade) GetID() uint64      { return t.ID }
func (t *Trade) SetID(id uint64)    { t.ID = id }
func (t *Trade) BusinessKey() int64 { return t.TradeID }
func (t *Trade) Refs() *References  { return &t.References }

func (t *Trade) Validate() error {
	if t.TradeID <= 0 {
		return errorx.InvalidArgument("tradeId is required")
	}
	return validateDecimals(
		decimalField{"price", t.Price},
		decimalField{"quantity", t.Quantity},
	)
}
