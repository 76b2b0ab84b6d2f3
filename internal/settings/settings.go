package settings

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"RateBoard/internal/model"
)

// Settings is the persisted user preference blob.
type Settings struct {
	Currency   string         `json:"currency"`
	Interval   model.Interval `json:"interval"`
	ChartColor string         `json:"chart_color"`
	Theme      string         `json:"theme"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Default returns the settings used before anything has been saved.
func Default() Settings {
	return Settings{
		Currency:   "BTC",
		Interval:   model.All,
		ChartColor: "#1f77b4",
		Theme:      ThemeLight,
	}
}

// Store persists a single Settings blob.
type Store interface {
	Load() (Settings, error)
	Save(s Settings) error
	Close() error
}

// Normalize fills empty fields from the defaults and canonicalizes the rest.
// Unknown intervals and malformed colors are replaced, not rejected.
func (s Settings) Normalize() Settings {
	def := Default()
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = def.Currency
	}
	if iv, err := model.ParseInterval(string(s.Interval)); err == nil {
		s.Interval = iv
	} else {
		s.Interval = def.Interval
	}
	if !hexColor.MatchString(s.ChartColor) {
		s.ChartColor = def.ChartColor
	}
	s.ChartColor = strings.ToLower(s.ChartColor)
	if s.Theme != ThemeDark {
		s.Theme = ThemeLight
	}
	return s
}

// ParseColor validates a #rrggbb chart color.
func ParseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if !hexColor.MatchString(s) {
		return "", fmt.Errorf("invalid color %q, expected #rrggbb", s)
	}
	return strings.ToLower(s), nil
}

// ToggleTheme switches between the light and dark themes.
func (s Settings) ToggleTheme() Settings {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
	return s
}
