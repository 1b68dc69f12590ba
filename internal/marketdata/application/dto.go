package application

import (
	"time"

	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
)

// TickerDTO Ticker 对外表示，tickerId 即内部 ID
type TickerDTO struct {
	TickerID           int64     `json:"tickerId"`
	Symbol             string    `json:"symbol"`
	EventType          string    `json:"eventType"`
	EventTimestamp     int64     `json:"eventTimestamp"`
	PriceChange        string    `json:"priceChange"`
	PriceChangePercent string    `json:"priceChangePercent"`
	WeightedAvgPrice   string    `json:"weightedAvgPrice"`
	LastPrice          string    `json:"lastPrice"`
	LastQuantity       string    `json:"lastQuantity"`
	OpenPrice          string    `json:"openPrice"`
	HighPrice          string    `json:"highPrice"`
	LowPrice           string    `json:"lowPrice"`
	Volume             string    `json:"volume"`
	QuoteVolume        string    `json:"quoteVolume"`
	OpenTime           int64     `json:"openTime"`
	CloseTime          int64     `json:"closeTime"`
	TradeCount         int64     `json:"tradeCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

// TradeDTO Trade 对外表示
type TradeDTO struct {
	ID                 uint64    `json:"id"`
	TradeID            int64     `json:"tradeId"`
	Symbol             string    `json:"symbol"`
	EventType          string    `json:"eventType"`
	EventTimestamp     int64     `json:"eventTimestamp"`
	Price              string    `json:"price"`
	Quantity           string    `json:"quantity"`
	TradeTime          int64     `json:"tradeTime"`
	IsBuyerMarketMaker bool      `json:"isBuyerMarketMaker"`
	CreatedAt          time.Time `json:"createdAt"`
}

// PageDTO 分页结果
type PageDTO[D any] struct {
	Content          []D   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Size             int   `json:"size"`
	Number           int   `json:"number"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

func newPage[D any](content []D, total int64, page, size int) *PageDTO[D] {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PageDTO[D]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Number:           page,
		NumberOfElements: len(content),
		First:            page == 0,
		Last:             page+1 >= totalPages,
		Empty:            len(content) == 0,
	}
}

// 客户端提交的 createdAt 与 Trade 内部 id 均被忽略

func tickerFromDTO(d TickerDTO) *domain.Ticker {
	return &domain.Ticker{
		ID:                 uint64(max(d.TickerID, 0)),
		References:         domain.References{Symbol: d.Symbol, EventType: d.EventType},
		EventTimestamp:     d.EventTimestamp,
		PriceChange:        d.PriceChange,
		PriceChangePercent: d.PriceChangePercent,
		WeightedAvgPrice:   d.WeightedAvgPrice,
		LastPrice:          d.LastPrice,
		LastQuantity:       d.LastQuantity,
		OpenPrice:          d.OpenPrice,
		HighPrice:          d.HighPrice,
		LowPrice:           d.LowPrice,
		Volume:             d.Volume,
		QuoteVolume:        d.QuoteVolume,
		OpenTime:           d.OpenTime,
		CloseTime:          d.CloseTime,
		TradeCount:         d.TradeCount,
	}
}

func tickerToDTO(t *domain.Ticker) TickerDTO {
	return TickerDTO{
		TickerID:           int64(t.ID),
		Symbol:             t.Symbol,
		EventType:          t.EventType,
		EventTimestamp:     t.EventTimestamp,
		PriceChange:        t.PriceChange,
		PriceChangePercent: t.PriceChangePercent,
		WeightedAvgPrice:   t.WeightedAvgPrice,
		LastPrice:          t.LastPrice,
		LastQuantity:       t.LastQuantity,
		OpenPrice:          t.OpenPrice,
		HighPrice:          t.HighPrice,
		LowPrice:           t.LowPrice,
		Volume:             t.Volume,
		QuoteVolume:        t.QuoteVolume,
		OpenTime:           t.OpenTime,
		CloseTime:          t.CloseTime,
		TradeCount:         t.TradeCount,
		CreatedAt:          t.CreatedAt,
	}
}

func tradeFromDTO(d TradeDTO) *domain.Trade {
	return &domain.Trade{
		TradeID:            d.TradeID,
		References:         domain.References{Symbol: d.Symbol, EventType: d.EventType},
		EventTimestamp:     d.EventTimestamp,
		Price:              d.Price,
		Quantity:           d.Quantity,
		TradeTime:          d.TradeTime,
		IsBuyerMarketMaker: d.IsBuyerMarketMaker,
	}
}

func tradeToDTO(t *domain.Trade) TradeDTO {
	return TradeDTO{
		ID:                 t.ID,
		TradeID:            t.TradeID,
		Symbol:             t.Symbol,
		EventType:          t.EventType,
		EventTimestamp:     t.EventTimestamp,
		Price:              t.Price,
		Quantity:           t.Quantity,
		TradeTime:          t.TradeTime,
		IsBuyerMarketMaker: t.IsBuyerMarketMaker,
		CreatedAt:          t.CreatedAt,
	}
}
