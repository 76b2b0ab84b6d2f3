package repository

import (
	"encoding/json"
	"log"
	"strings"

	"RateBoard/internal/model"
)

// snapshotSections maps the top-level keys of a bundled snapshot to currency kinds.
var snapshotSections = []struct {
	key  string
	kind model.Kind
}{
	{"crypto", model.KindCrypto},
	{"fiat", model.KindFiat},
}

// CodeFromPair extracts the base currency code from a pair such as "btc/rub".
func CodeFromPair(pair string) string {
	base, _, _ := strings.Cut(pair, "/")
	return strings.ToUpper(strings.TrimSpace(base))
}

// LoadSnapshot reads a bundled snapshot of the form
// {"crypto": {"BTC/RUB": {...}}, "fiat": {"USD/RUB": {...}}}.
// Currencies whose payload cannot be normalized are skipped.
func LoadSnapshot(raw []byte) (map[string]*model.CurrencyRecord, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, formatError("snapshot", "decode snapshot", err)
	}

	out := make(map[string]*model.CurrencyRecord)
	found := 0
	for _, section := range snapshotSections {
		body, ok := top[section.key]
		if !ok {
			continue
		}
		found++
		var pairs map[string]json.RawMessage
		if err := json.Unmarshal(body, &pairs); err != nil {
			log.Printf("[WARN] snapshot: skip section %q: %v", section.key, err)
			continue
		}
		for pair, payload := range pairs {
			code := CodeFromPair(pair)
			rec, err := Normalize(code, payload)
			if err != nil {
				log.Printf("[WARN] snapshot: skip %s: %v", pair, err)
				continue
			}
			rec.Kind = section.kind
			out[code] = rec
		}
	}
	if len(top) > 0 && found == 0 {
		return nil, formatError("snapshot", "no crypto or fiat section", nil)
	}
	return out, nil
}
