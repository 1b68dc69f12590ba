package domain

import "time"

// Ticker 24 小时滚动行情快照。内部 ID 即对外的 tickerId。
type Ticker struct {
	ID uint64
	References

	EventTimestamp     int64
	PriceChange        string
	PriceChangePercent string
	WeightedAvgPrice   string
	LastPrice          string
	LastQuantity       string
	OpenPrice          string
	HighPrice          string
	LowPrice           string
	Volume             string
	QuoteVolume        string
	OpenTime           int64
	CloseTime          int64
	TradeCount         int64
	CreatedAt          time.Time
}

func (t *Ticker) GetID() uint64      { return t.ID }
func (t *Ticker) SetID(id uint64)    { t.ID = id }
func (t *Ticker) BusinessKey() int64 { return int64(t.ID) }
func (t *Ticker) Refs() *References  { return &t.References }

// Validate 校验十进制字段
func (t *Ticker) Validate() error {
	return validateDecimals(
		decimalField{"priceChange", t.PriceChange},
		decimalField{"priceChangePercent", t.PriceChangePercent},
		decimalField{"weightedAvgPrice", t.WeightedAvgPrice},
		decimalField{"lastPrice", t.LastPrice},
		decimalField{"lastQuantity", t.LastQuantity},
		decimalField{"openPrice", t.OpenPrice},
		decimalField{"highPrice", t.HighPrice},
		decimalField{"lowPrice", t.LowPrice},
		decimalField{"volume", t.Volume},
		decimalField{"quoteVolume", t.QuoteVolume},
	)
}
