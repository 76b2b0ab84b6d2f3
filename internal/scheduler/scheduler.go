package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"RateBoard/internal/collector"
	"RateBoard/internal/dashboard"
	"RateBoard/internal/model"
	"RateBoard/internal/notifier"
	"RateBoard/internal/settings"
)

// Refresher reloads histories and spot prices into the shared store.
type Refresher interface {
	RefreshHistory(ctx context.Context) error
	RefreshSpot(ctx context.Context) error
}

// Sender delivers text messages to the chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks and bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Refresher
	Store     *collector.Store
	Views     *dashboard.Builder
	Presenter dashboard.ChartPresenter
	Notifier  Sender
	Settings  settings.Store
	Codes     []string
	Ctx       context.Context
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col Refresher, store *collector.Store, views *dashboard.Builder,
	presenter dashboard.ChartPresenter, sender Sender, st settings.Store, codes []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     store,
		Views:     views,
		Presenter: presenter,
		Notifier:  sender,
		Settings:  st,
		Codes:     codes,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the spot, history and digest tasks.
func (s *Scheduler) RegisterAll(spotCron, historyCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(spotCron, s.spotTask); err != nil {
		return fmt.Errorf("register spot task: %w", err)
	}
	if _, err := s.Cron.AddFunc(historyCron, s.historyTask); err != nil {
		return fmt.Errorf("register history task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RefreshNow loads histories and spot prices immediately, before the first cron tick.
func (s *Scheduler) RefreshNow() {
	s.historyTask()
	s.spotTask()
}

func (s *Scheduler) spotTask() {
	if err := s.Collector.RefreshSpot(s.Ctx); err != nil {
		log.Printf("[ERROR] spot refresh: %v", err)
	}
}

func (s *Scheduler) historyTask() {
	log.Println("[INFO] running history refresh")
	if err := s.Collector.RefreshHistory(s.Ctx); err != nil {
		log.Printf("[ERROR] history refresh: %v", err)
		s.trySend(fmt.Sprintf("❌ Не удалось обновить историю курсов: %v", err))
	}
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] running daily digest")
	views := make([]*dashboard.ChartView, 0, len(s.Codes))
	for _, code := range s.Codes {
		view, err := s.Views.Build(dashboard.State{Currency: code, Interval: model.OneMonth})
		if err != nil {
			log.Printf("[WARN] digest %s: %v", code, err)
			continue
		}
		views = append(views, view)
	}
	if len(views) == 0 {
		log.Println("[WARN] digest skipped, no data")
		return
	}
	s.trySend(notifier.FormatDigest(s.Now(), views))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/rates":
		reply := notifier.FormatSpotPrices(s.Codes, s.Store.SpotAll())
		if at := s.Store.UpdatedAt(); !at.IsZero() {
			reply += fmt.Sprintf("\nИстория: %s", at.Format("02.01.2006 15:04"))
		}
		return reply
	case "/chart":
		st, reply := s.stateFor(args)
		if reply != "" {
			return reply
		}
		if err := s.Views.Show(ctx, s.Presenter, st); err != nil {
			return s.viewError(st, err)
		}
		return ""
	case "/stats":
		st, reply := s.stateFor(args)
		if reply != "" {
			return reply
		}
		view, err := s.Views.Build(st)
		if err != nil {
			return s.viewError(st, err)
		}
		return notifier.FormatStats(view)
	case "/currency":
		if len(args) != 1 {
			return "Использование: /currency КОД"
		}
		code := strings.ToUpper(args[0])
		if !s.tracked(code) {
			return fmt.Sprintf("Неизвестная валюта: %s. Доступны: %s", code, strings.Join(s.Codes, ", "))
		}
		return s.update(func(cur settings.Settings) settings.Settings {
			cur.Currency = code
			return cur
		}, "✅ Валюта по умолчанию: "+code)
	case "/interval":
		if len(args) != 1 {
			return "Использование: /interval 1m|6m|1y|3y|all"
		}
		iv, err := model.ParseInterval(args[0])
		if err != nil {
			return "❌ " + err.Error()
		}
		return s.update(func(cur settings.Settings) settings.Settings {
			cur.Interval = iv
			return cur
		}, "✅ Интервал: "+dashboard.IntervalTitle(iv))
	case "/color":
		if len(args) != 1 {
			return "Использование: /color #rrggbb"
		}
		color, err := settings.ParseColor(args[0])
		if err != nil {
			return "❌ " + err.Error()
		}
		return s.update(func(cur settings.Settings) settings.Settings {
			cur.ChartColor = color
			return cur
		}, "✅ Цвет графика: "+color)
	case "/theme":
		cur, err := s.Settings.Load()
		if err != nil {
			return "❌ " + err.Error()
		}
		next := cur.ToggleTheme()
		return s.update(func(settings.Settings) settings.Settings { return next }, "✅ Тема: "+next.Theme)
	case "/settings":
		cur, err := s.Settings.Load()
		if err != nil {
			return "❌ " + err.Error()
		}
		return fmt.Sprintf("⚙️ <b>Настройки</b>\n\nВалюта: %s\nИнтервал: %s\nЦвет: %s\nТема: %s",
			cur.Currency, dashboard.IntervalTitle(cur.Interval), cur.ChartColor, cur.Theme)
	default:
		return notifier.FormatHelp()
	}
}

// stateFor starts from the saved settings and applies optional [CODE] [interval] arguments.
func (s *Scheduler) stateFor(args []string) (dashboard.State, string) {
	cur, err := s.Settings.Load()
	if err != nil {
		log.Printf("[WARN] load settings: %v", err)
		cur = settings.Default()
	}
	st := dashboard.StateFromSettings(cur)
	for _, arg := range args {
		if iv, err := model.ParseInterval(arg); err == nil {
			st.Interval = iv
			continue
		}
		code := strings.ToUpper(arg)
		if !s.tracked(code) {
			return st, fmt.Sprintf("Неизвестная валюта или интервал: %s", arg)
		}
		st.Currency = code
	}
	return st, ""
}

func (s *Scheduler) viewError(st dashboard.State, err error) string {
	if errors.Is(err, dashboard.ErrUnknownCurrency) {
		return fmt.Sprintf("Нет данных по валюте %s. Попробуйте позже.", st.Currency)
	}
	log.Printf("[ERROR] show %s: %v", st.Currency, err)
	return fmt.Sprintf("❌ Не удалось построить график: %v", err)
}

func (s *Scheduler) tracked(code string) bool {
	for _, c := range s.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func (s *Scheduler) update(apply func(settings.Settings) settings.Settings, ok string) string {
	cur, err := s.Settings.Load()
	if err != nil {
		log.Printf("[ERROR] load settings: %v", err)
		return "❌ Не удалось загрузить настройки"
	}
	if err := s.Settings.Save(apply(cur)); err != nil {
		log.Printf("[ERROR] save settings: %v", err)
		return "❌ Не удалось сохранить настройки"
	}
	return ok
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
