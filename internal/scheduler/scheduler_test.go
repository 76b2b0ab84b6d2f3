package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateBoard/internal/collector"
	"RateBoard/internal/dashboard"
	"RateBoard/internal/model"
	"RateBoard/internal/settings"
)

type fakeRefresher struct {
	historyErr, spotErr error
	history, spot       int
}

func (f *fakeRefresher) RefreshHistory(context.Context) error { f.history++; return f.historyErr }
func (f *fakeRefresher) RefreshSpot(context.Context) error    { f.spot++; return f.spotErr }

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakePresenter struct {
	views []*dashboard.ChartView
}

func (f *fakePresenter) Present(_ context.Context, v *dashboard.ChartView) error {
	f.views = append(f.views, v)
	return nil
}

type fixture struct {
	s         *Scheduler
	refresher *fakeRefresher
	sender    *fakeSender
	presenter *fakePresenter
	settings  *settings.MemoryStore
}

func rates(values ...float64) []model.Rate {
	out := make([]model.Rate, len(values))
	for i, v := range values {
		out[i] = model.Present(v)
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := collector.NewStore()
	store.SetRecords(map[string]*model.CurrencyRecord{
		"BTC": {
			Code: "BTC", Kind: model.KindCrypto,
			Years: map[int][]model.Rate{2024: rates(5e6, 5.5e6, 6e6)},
			Daily: &model.DailySeries{Year: 2024, Month: time.March, Days: rates(6e6, 6.1e6)},
		},
		"USD": {Code: "USD", Kind: model.KindFiat, Years: map[int][]model.Rate{2024: rates(90, 91, 92, 93, 94, 95, 96)}},
	})
	store.SetSpot(map[string]model.PricePoint{"USD": {Code: "USD", RUB: 96.5, Source: "moex"}})

	f := &fixture{
		refresher: &fakeRefresher{},
		sender:    &fakeSender{},
		presenter: &fakePresenter{},
		settings:  settings.NewMemoryStore(),
	}
	views := dashboard.NewBuilder(store, false)
	f.s = NewScheduler(context.Background(), f.refresher, store, views, f.presenter, f.sender, f.settings, []string{"BTC", "ETH", "USD"})
	f.s.Now = func() time.Time { return time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.RegisterAll("*/30 * * * * *", "0 0 6 * * *", "0 0 9 * * *"))
	assert.Len(t, f.s.Cron.Entries(), 3)

	f = newFixture(t)
	assert.ErrorContains(t, f.s.RegisterAll("*/30 * * * * *", "bogus", "0 0 9 * * *"), "history task")
}

func TestRefreshNow(t *testing.T) {
	f := newFixture(t)
	f.refresher.historyErr = errors.New("binance down")
	f.refresher.spotErr = errors.New("moex down")

	f.s.RefreshNow()
	assert.Equal(t, 1, f.refresher.history)
	assert.Equal(t, 1, f.refresher.spot)
	require.Len(t, f.sender.sent, 1, "only history failures are reported to the chat")
	assert.Contains(t, f.sender.sent[0], "binance down")
}

func TestDigestTask(t *testing.T) {
	f := newFixture(t)
	f.s.digestTask()
	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Contains(t, msg, "03.03.2024")
	assert.Contains(t, msg, "BTC: 6 100 000,00 ₽")
	assert.Contains(t, msg, "USD: 96,50 ₽")
	assert.NotContains(t, msg, "ETH")
}

func TestHandleCommand_Rates(t *testing.T) {
	f := newFixture(t)
	reply := f.s.HandleCommand(context.Background(), "/rates@RateBoardBot")
	assert.Contains(t, reply, "USD: 96,50 ₽")
	assert.Contains(t, reply, "BTC: — ₽")
	assert.Contains(t, reply, "История:")
}

func TestHandleCommand_ChartUsesSettingsAndArgs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Empty(t, f.s.HandleCommand(ctx, "/chart"))
	require.Len(t, f.presenter.views, 1)
	assert.Equal(t, "BTC", f.presenter.views[0].Code)
	assert.Equal(t, model.All, f.presenter.views[0].Interval)

	assert.Empty(t, f.s.HandleCommand(ctx, "/chart usd 6m"))
	require.Len(t, f.presenter.views, 2)
	v := f.presenter.views[1]
	assert.Equal(t, "USD", v.Code)
	assert.Equal(t, []float64{91, 92, 93, 94, 95, 96}, v.Series.Values)

	assert.Contains(t, f.s.HandleCommand(ctx, "/chart GBP"), "Неизвестная валюта")
	assert.Contains(t, f.s.HandleCommand(ctx, "/chart ETH"), "Нет данных по валюте ETH")
	assert.Len(t, f.presenter.views, 2)
}

func TestHandleCommand_Stats(t *testing.T) {
	f := newFixture(t)
	reply := f.s.HandleCommand(context.Background(), "/stats USD 1y")
	assert.Contains(t, reply, "Статистика для: USD")
	assert.Contains(t, reply, "Среднее: 93,00 ₽")
	assert.Contains(t, reply, "Медиана: 93,00 ₽")
}

func TestHandleCommand_Settings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Contains(t, f.s.HandleCommand(ctx, "/currency usd"), "USD")
	assert.Contains(t, f.s.HandleCommand(ctx, "/interval 3Y"), "3 года")
	assert.Contains(t, f.s.HandleCommand(ctx, "/color 00FF00"), "#00ff00")
	assert.Contains(t, f.s.HandleCommand(ctx, "/theme"), "dark")

	saved, err := f.settings.Load()
	require.NoError(t, err)
	assert.Equal(t, "USD", saved.Currency)
	assert.Equal(t, model.ThreeYears, saved.Interval)
	assert.Equal(t, "#00ff00", saved.ChartColor)
	assert.Equal(t, settings.ThemeDark, saved.Theme)

	reply := f.s.HandleCommand(ctx, "/settings")
	assert.Contains(t, reply, "Валюта: USD")
	assert.Contains(t, reply, "Тема: dark")

	assert.Contains(t, f.s.HandleCommand(ctx, "/currency GBP"), "Неизвестная валюта")
	assert.Contains(t, f.s.HandleCommand(ctx, "/interval 2w"), "unknown interval")
	assert.Contains(t, f.s.HandleCommand(ctx, "/color blue"), "invalid color")
	assert.Contains(t, f.s.HandleCommand(ctx, "/currency"), "Использование")

	saved, _ = f.settings.Load()
	assert.Equal(t, "USD", saved.Currency, "rejected commands leave settings untouched")
}

func TestHandleCommand_Help(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{"/help", "/start", "hello", ""} {
		assert.Contains(t, f.s.HandleCommand(context.Background(), cmd), "/chart", "command %q", cmd)
	}
}
