package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

const (
	binanceKlineLimit = 1000
	usdtRubPair       = "USDTRUB"
	dayMillis         = int64(24 * time.Hour / time.Millisecond)
)

// binancePair describes how a RUB price is derived from Binance tickers.
// ViaUSDT pairs are quoted in USDT and crossed with USDTRUB.
type binancePair struct {
	Symbol  string
	ViaUSDT bool
}

// BinanceFetcher implements HistoryFetcher and SpotFetcher using the Binance public API.
type BinanceFetcher struct {
	BaseURL     string
	HistoryDays int
	Client      *http.Client
	Now         func() time.Time

	// History pairs are always USDT-quoted; spot may use a direct RUB pair.
	HistoryPairs map[string]string
	SpotPairs    map[string]binancePair
}

// NewBinanceFetcher creates a fetcher with optional proxy support.
func NewBinanceFetcher(baseURL string, historyDays int, proxyURL string) *BinanceFetcher {
	return &BinanceFetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HistoryDays: historyDays,
		Client:      newHTTPClient(proxyURL),
		Now:         time.Now,
		HistoryPairs: map[string]string{
			"BTC": "BTCUSDT",
			"ETH": "ETHUSDT",
			"TON": "TONUSDT",
		},
		SpotPairs: map[string]binancePair{
			"BTC": {Symbol: "BTCUSDT", ViaUSDT: true},
			"ETH": {Symbol: "ETHRUB"},
			"TON": {Symbol: "TONUSDT", ViaUSDT: true},
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

func (f *BinanceFetcher) Supports(code string) bool {
	_, ok := f.HistoryPairs[strings.ToUpper(code)]
	return ok
}

// FetchHistory loads daily klines for the USDT pair and crosses every close
// with the USDTRUB close of the same day.
func (f *BinanceFetcher) FetchHistory(ctx context.Context, code string) (*model.CurrencyRecord, error) {
	code = strings.ToUpper(code)
	pair, ok := f.HistoryPairs[code]
	if !ok {
		return nil, fmt.Errorf("binance: unsupported currency %s", code)
	}

	end := f.Now()
	start := end.AddDate(0, 0, -f.HistoryDays)

	closes, err := f.fetchDailyCloses(ctx, pair, start, end)
	if err != nil {
		return nil, err
	}
	rubCloses, err := f.fetchDailyCloses(ctx, usdtRubPair, start, end)
	if err != nil {
		return nil, err
	}
	rubByDay := make(map[string]decimal.Decimal, len(rubCloses))
	for _, c := range rubCloses {
		rubByDay[c.day.Format("2006-01-02")] = c.close
	}

	obs := make([]model.Observation, 0, len(closes))
	for _, c := range closes {
		rub, ok := rubByDay[c.day.Format("2006-01-02")]
		if !ok {
			continue
		}
		price, _ := c.close.Mul(rub).Round(4).Float64()
		obs = append(obs, model.Observation{Date: c.day, Price: price})
	}
	log.Printf("[INFO] binance: %s history has %d days", code, len(obs))
	return repository.FromObservations(code, obs), nil
}

type dailyClose struct {
	day   time.Time
	close decimal.Decimal
}

// fetchDailyCloses pages through /api/v3/klines in chunks of binanceKlineLimit bars.
func (f *BinanceFetcher) fetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]dailyClose, error) {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	var out []dailyClose

	for {
		q := url.Values{}
		q.Set("symbol", symbol)
		q.Set("interval", "1d")
		q.Set("startTime", fmt.Sprint(startMs))
		q.Set("endTime", fmt.Sprint(endMs))
		q.Set("limit", fmt.Sprint(binanceKlineLimit))

		var klines [][]json.RawMessage
		if err := getJSON(ctx, f.Client, f.BaseURL+"/api/v3/klines?"+q.Encode(), &klines); err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		if len(klines) == 0 {
			break
		}
		var openTime int64
		for _, k := range klines {
			c, ot, err := parseKline(k)
			if err != nil {
				log.Printf("[WARN] binance: skip %s kline: %v", symbol, err)
				continue
			}
			openTime = ot
			out = append(out, c)
		}
		if len(klines) < binanceKlineLimit || openTime == 0 {
			break
		}
		startMs = openTime + dayMillis
	}
	return out, nil
}

// parseKline reads the open time (index 0) and close price (index 4) of a kline.
func parseKline(k []json.RawMessage) (dailyClose, int64, error) {
	if len(k) < 5 {
		return dailyClose{}, 0, fmt.Errorf("short kline of %d fields", len(k))
	}
	var openTime int64
	if err := json.Unmarshal(k[0], &openTime); err != nil {
		return dailyClose{}, 0, fmt.Errorf("open time: %w", err)
	}
	var closeStr string
	if err := json.Unmarshal(k[4], &closeStr); err != nil {
		return dailyClose{}, 0, fmt.Errorf("close: %w", err)
	}
	closePrice, err := decimal.NewFromString(closeStr)
	if err != nil {
		return dailyClose{}, 0, fmt.Errorf("close: %w", err)
	}
	day := time.UnixMilli(openTime).UTC().Truncate(24 * time.Hour)
	return dailyClose{day: day, close: closePrice}, openTime, nil
}

// FetchSpot loads every needed ticker concurrently and derives RUB prices.
func (f *BinanceFetcher) FetchSpot(ctx context.Context, codes []string) (map[string]float64, error) {
	symbols := make(map[string]bool)
	for _, code := range codes {
		p, ok := f.SpotPairs[strings.ToUpper(code)]
		if !ok {
			continue
		}
		symbols[p.Symbol] = true
		if p.ViaUSDT {
			symbols[usdtRubPair] = true
		}
	}
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	var mu sync.Mutex
	tickers := make(map[string]decimal.Decimal, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for symbol := range symbols {
		g.Go(func() error {
			price, err := f.fetchTicker(gctx, symbol)
			if err != nil {
				log.Printf("[WARN] binance: ticker %s: %v", symbol, err)
				return nil
			}
			mu.Lock()
			tickers[symbol] = price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prices := make(map[string]float64)
	for _, code := range codes {
		code = strings.ToUpper(code)
		p, ok := f.SpotPairs[code]
		if !ok {
			continue
		}
		price, ok := tickers[p.Symbol]
		if !ok {
			continue
		}
		if p.ViaUSDT {
			rub, ok := tickers[usdtRubPair]
			if !ok {
				continue
			}
			price = price.Mul(rub)
		}
		prices[code], _ = price.Round(2).Float64()
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("binance: no spot prices available")
	}
	return prices, nil
}

func (f *BinanceFetcher) fetchTicker(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var result struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := getJSON(ctx, f.Client, f.BaseURL+"/api/v3/ticker/price?symbol="+url.QueryEscape(symbol), &result); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(result.Price)
}
