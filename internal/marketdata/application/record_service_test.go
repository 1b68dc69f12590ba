package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/internal/marketdata/infrastructure/messaging"
	"github.com/wyfcoding/marketquery/internal/marketdata/infrastructure/persistence/mysql"
	refapp "github.com/wyfcoding/marketquery/internal/referencedata/application"
	refdomain "github.com/wyfcoding/marketquery/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/marketquery/internal/referencedata/infrastructure/persistence/mysql"
	pkgdb "github.com/wyfcoding/marketquery/pkg/db"
	"github.com/wyfcoding/marketquery/pkg/errorx"
	"github.com/wyfcoding/marketquery/pkg/metrics"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.RecordEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *domain.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type services struct {
	db      *gorm.DB
	tickers *TickerService
	trades  *TradeService
	events  *recordingPublisher
	metrics *metrics.Metrics
}

func newServices(t *testing.T) *services {
	t.Helper()
	ctx := context.Background()
	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         pkgdb.NewGormLogger(false, 0),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(refmysql.Models()...))
	require.NoError(t, gdb.AutoMigrate(mysql.Models()...))

	symbols := refapp.NewDirectory(refdomain.KindSymbol, refmysql.NewSymbolRepository(gdb), nil, nil)
	eventTypes := refapp.NewDirectory(refdomain.KindEventType, refmysql.NewEventTypeRepository(gdb), nil, nil)
	for _, s := range []string{"BTCUSDT", "ETHUSDT"} {
		_, err := symbols.Ensure(ctx, s)
		require.NoError(t, err)
	}
	for _, e := range []string{"trade", "24hrTicker"} {
		_, err := eventTypes.Ensure(ctx, e)
		require.NoError(t, err)
	}

	pub := &recordingPublisher{}
	m := metrics.New("marketquery-test")
	return &services{
		db:      gdb,
		tickers: NewTickerService(mysql.NewTickerStore(gdb), symbols, eventTypes, pub, m),
		trades:  NewTradeService(mysql.NewTradeStore(gdb), symbols, eventTypes, pub, m),
		events:  pub,
		metrics: m,
	}
}

func tradeDTO(id int64, symbol string) TradeDTO {
	return TradeDTO{
		TradeID:   id,
		Symbol:    symbol,
		EventType: "trade",
		Price:     "27000.10",
		Quantity:  "0.5",
		TradeTime: 1700000000000,
	}
}

func TestCreateTradeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	in := tradeDTO(12345, "BTCUSDT")
	in.ID = 777
	out, err := s.trades.Create(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, out.ID)
	assert.NotEqual(t, uint64(777), out.ID)
	assert.EqualValues(t, 12345, out.TradeID)
	assert.Equal(t, "BTCUSDT", out.Symbol)
	assert.Equal(t, "trade", out.EventType)
	assert.False(t, out.CreatedAt.IsZero())

	got, err := s.trades.Get(ctx, 12345)
	require.NoError(t, err)
	assertSameTrade(t, out, got)

	byID, err := s.trades.GetByID(ctx, out.ID)
	require.NoError(t, err)
	assertSameTrade(t, out, byID)
}

func assertSameTrade(t *testing.T, want, got TradeDTO) {
	t.Helper()
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	want.CreatedAt, got.CreatedAt = got.CreatedAt, got.CreatedAt
	assert.Equal(t, want, got)
}

func TestCreateUnknownReferencePersistsNothing(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.trades.Create(ctx, tradeDTO(1, "UNKNOWN"))
	require.Error(t, err)
	assert.Equal(t, errorx.CodeInvalidReference, errorx.CodeOf(err))
	assert.Equal(t, "Invalid symbol: UNKNOWN", errorx.MessageOf(err))

	bad := tradeDTO(2, "BTCUSDT")
	bad.EventType = "kline"
	_, err = s.trades.Create(ctx, bad)
	assert.Equal(t, "Invalid event type: kline", errorx.MessageOf(err))

	page, err := s.trades.List(ctx, domain.PageRequest{Page: 0, Size: 20, SortBy: "tradeId", Direction: "asc"})
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements)
	assert.Empty(t, s.events.events)
}

func TestCreateDuplicateTradeConflicts(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.trades.Create(ctx, tradeDTO(5, "BTCUSDT"))
	require.NoError(t, err)
	_, err = s.trades.Create(ctx, tradeDTO(5, "ETHUSDT"))
	assert.True(t, errorx.Is(err, errorx.CodeConflict))
	assert.Equal(t, "Trade with id 5 already exists", errorx.MessageOf(err))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.trades.Create(ctx, tradeDTO(0, "BTCUSDT"))
	assert.True(t, errorx.Is(err, errorx.CodeInvalidArgument))

	in := tradeDTO(1, "BTCUSDT")
	in.Price = "abc"
	_, err = s.trades.Create(ctx, in)
	assert.True(t, errorx.Is(err, errorx.CodeInvalidArgument))
	assert.Contains(t, errorx.MessageOf(err), "price")
}

func TestUpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	created, err := s.tickers.Create(ctx, TickerDTO{Symbol: "BTCUSDT", EventType: "24hrTicker", LastPrice: "1.0", TradeCount: 3})
	require.NoError(t, err)

	upd := TickerDTO{TickerID: created.TickerID, Symbol: "ETHUSDT", EventType: "24hrTicker", LastPrice: "2.0"}
	out, err := s.tickers.Update(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, created.TickerID, out.TickerID)
	assert.True(t, created.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, "ETHUSDT", out.Symbol)
	assert.Equal(t, "2.0", out.LastPrice)
	assert.Zero(t, out.TradeCount)
}

func TestUpdateMissingAndWithoutKey(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.tickers.Update(ctx, TickerDTO{Symbol: "BTCUSDT", EventType: "24hrTicker"})
	assert.True(t, errorx.Is(err, errorx.CodeInvalidArgument))
	assert.Equal(t, "tickerId is required", errorx.MessageOf(err))

	// 记录不存在时先于引用解析失败
	_, err = s.trades.Update(ctx, tradeDTO(404, "UNKNOWN"))
	assert.True(t, errorx.Is(err, errorx.CodeNotFound))
	assert.Equal(t, "Trade with id 404 not found", errorx.MessageOf(err))
}

func TestDeleteThenRead(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.trades.Create(ctx, tradeDTO(8, "BTCUSDT"))
	require.NoError(t, err)
	require.NoError(t, s.trades.Delete(ctx, 8))

	_, err = s.trades.Get(ctx, 8)
	assert.True(t, errorx.Is(err, errorx.CodeNotFound))

	err = s.trades.Delete(ctx, 8)
	assert.True(t, errorx.Is(err, errorx.CodeNotFound))
	assert.Equal(t, "Trade with id 8 not found", errorx.MessageOf(err))
}

func TestPaginationCoversEveryRecordOnce(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	const n, size = 23, 5
	for i := int64(1); i <= n; i++ {
		_, err := s.trades.Create(ctx, tradeDTO(i*10, "BTCUSDT"))
		require.NoError(t, err)
	}

	seen := make(map[int64]bool)
	first, err := s.trades.List(ctx, domain.PageRequest{Page: 0, Size: size, SortBy: "tradeId", Direction: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalPages)
	for p := 0; p < first.TotalPages; p++ {
		page, err := s.trades.List(ctx, domain.PageRequest{Page: p, Size: size, SortBy: "tradeId", Direction: "desc"})
		require.NoError(t, err)
		assert.EqualValues(t, n, page.TotalElements)
		assert.Equal(t, p, page.Number)
		assert.Equal(t, p == first.TotalPages-1, page.Last)
		for _, d := range page.Content {
			assert.False(t, seen[d.TradeID], "duplicate %d", d.TradeID)
			seen[d.TradeID] = true
		}
	}
	assert.Len(t, seen, n)
}

func TestListBySymbolAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.tickers.Create(ctx, TickerDTO{Symbol: "BTCUSDT", EventType: "24hrTicker", LastPrice: "1"})
	require.NoError(t, err)
	last, err := s.tickers.Create(ctx, TickerDTO{Symbol: "BTCUSDT", EventType: "24hrTicker", LastPrice: "2"})
	require.NoError(t, err)
	_, err = s.tickers.Create(ctx, TickerDTO{Symbol: "ETHUSDT", EventType: "24hrTicker", LastPrice: "3"})
	require.NoError(t, err)

	page, err := s.tickers.ListBySymbol(ctx, "BTCUSDT", domain.PageRequest{Page: 0, Size: 20, SortBy: "id", Direction: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalElements)
	for _, d := range page.Content {
		assert.Equal(t, "BTCUSDT", d.Symbol)
	}

	latest, err := s.tickers.LatestBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, last.TickerID, latest.TickerID)

	_, err = s.tickers.LatestBySymbol(ctx, "UNKNOWN")
	assert.True(t, errorx.Is(err, errorx.CodeInvalidReference))

	_, err = s.trades.LatestBySymbol(ctx, "ETHUSDT")
	assert.True(t, errorx.Is(err, errorx.CodeNotFound))
	assert.Equal(t, "No trades found for symbol ETHUSDT", errorx.MessageOf(err))
}

func TestListValidatesPageRequest(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	cases := []domain.PageRequest{
		{Page: -1, Size: 20, SortBy: "id"},
		{Page: 0, Size: 0, SortBy: "id"},
		{Page: 0, Size: domain.MaxPageSize + 1, SortBy: "id"},
		{Page: 0, Size: 20, SortBy: "symbol; DROP TABLE ticker"},
	}
	for _, req := range cases {
		_, err := s.tickers.List(ctx, req)
		assert.True(t, errorx.Is(err, errorx.CodeInvalidArgument), "%+v", req)
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	created, err := s.trades.Create(ctx, tradeDTO(31, "BTCUSDT"))
	require.NoError(t, err)
	_, err = s.trades.Update(ctx, tradeDTO(31, "ETHUSDT"))
	require.NoError(t, err)
	require.NoError(t, s.trades.Delete(ctx, 31))

	require.Len(t, s.events.events, 3)
	assert.Equal(t, domain.ActionCreated, s.events.events[0].Action)
	assert.Equal(t, "trade", s.events.events[0].Entity)
	assert.EqualValues(t, 31, s.events.events[0].Key)
	assert.Equal(t, created, s.events.events[0].Record)
	assert.Equal(t, domain.ActionUpdated, s.events.events[1].Action)
	assert.Equal(t, domain.ActionDeleted, s.events.events[2].Action)
	assert.Nil(t, s.events.events[2].Record)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RecordMutationsTotal.WithLabelValues("trade", "created")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.EventsPublishedTotal.WithLabelValues("trade", "published")))
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	s.events.err = errors.New("broker down")

	_, err := s.trades.Create(ctx, tradeDTO(1, "BTCUSDT"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.EventsPublishedTotal.WithLabelValues("trade", "failed")))
}

// stalledSender 模拟无响应的 broker，直到 ctx 结束才返回
type stalledSender struct {
	hasDeadline chan bool
}

func (s stalledSender) SendMessage(ctx context.Context, _, _ string, _ any) error {
	_, ok := ctx.Deadline()
	s.hasDeadline <- ok
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledBrokerDoesNotStallRequest(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	sender := stalledSender{hasDeadline: make(chan bool, 1)}

	symbols := refapp.NewDirectory(refdomain.KindSymbol, refmysql.NewSymbolRepository(s.db), nil, nil)
	eventTypes := refapp.NewDirectory(refdomain.KindEventType, refmysql.NewEventTypeRepository(s.db), nil, nil)
	trades := NewTradeService(mysql.NewTradeStore(s.db), symbols, eventTypes, messaging.NewKafkaPublisher(sender, "marketquery"), s.metrics)

	start := time.Now()
	_, err := trades.Create(ctx, tradeDTO(77, "BTCUSDT"))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 2*publishTimeout)
	assert.True(t, <-sender.hasDeadline)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.EventsPublishedTotal.WithLabelValues("trade", "failed")))

	got, err := trades.Get(ctx, 77)
	require.NoError(t, err)
	assert.EqualValues(t, 77, got.TradeID)
}
