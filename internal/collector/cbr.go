package collector

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

// CBRFetcher implements HistoryFetcher using the Central Bank of Russia XML API.
type CBRFetcher struct {
	BaseURL     string
	HistoryDays int
	Client      *http.Client
	Now         func() time.Time
	CodeMap     map[string]string // maps currency code to CBR currency id
}

// NewCBRFetcher creates a new CBR fetcher.
func NewCBRFetcher(baseURL string, historyDays int, proxyURL string) *CBRFetcher {
	return &CBRFetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HistoryDays: historyDays,
		Client:      newHTTPClient(proxyURL),
		Now:         time.Now,
		CodeMap: map[string]string{
			"USD": "R01235",
			"EUR": "R01239",
			"CNY": "R01375",
			"AED": "R01230",
		},
	}
}

func (f *CBRFetcher) Name() string { return "cbr" }

func (f *CBRFetcher) Supports(code string) bool {
	_, ok := f.CodeMap[strings.ToUpper(code)]
	return ok
}

// cbrDynamic is the XML_dynamic.asp response.
type cbrDynamic struct {
	XMLName xml.Name `xml:"ValCurs"`
	Records []struct {
		Date    string `xml:"Date,attr"`
		Nominal string `xml:"Nominal"`
		Value   string `xml:"Value"`
	} `xml:"Record"`
}

// FetchHistory loads the official daily rates for the configured history window.
func (f *CBRFetcher) FetchHistory(ctx context.Context, code string) (*model.CurrencyRecord, error) {
	code = strings.ToUpper(code)
	id, ok := f.CodeMap[code]
	if !ok {
		return nil, fmt.Errorf("cbr: unsupported currency %s", code)
	}

	end := f.Now()
	start := end.AddDate(0, 0, -f.HistoryDays)
	q := url.Values{}
	q.Set("date_req1", start.Format("02/01/2006"))
	q.Set("date_req2", end.Format("02/01/2006"))
	q.Set("VAL_NM_RQ", id)

	body, err := getBody(ctx, f.Client, f.BaseURL+"/scripts/XML_dynamic.asp?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("cbr dynamic %s: %w", code, err)
	}
	obs, err := parseCBRDynamic(code, body)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] cbr: %s history has %d days", code, len(obs))
	return repository.FromObservations(code, obs), nil
}

func parseCBRDynamic(code string, body []byte) ([]model.Observation, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(label, "windows-1251") {
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}

	var doc cbrDynamic
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cbr decode %s: %w", code, err)
	}

	obs := make([]model.Observation, 0, len(doc.Records))
	for _, r := range doc.Records {
		day, err := time.Parse("02.01.2006", r.Date)
		if err != nil {
			log.Printf("[WARN] cbr: %s skip record dated %q", code, r.Date)
			continue
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(r.Value), ",", "."))
		if err != nil {
			log.Printf("[WARN] cbr: %s skip %s value %q", code, r.Date, r.Value)
			continue
		}
		nominal := decimal.NewFromInt(1)
		if n, err := decimal.NewFromString(strings.TrimSpace(r.Nominal)); err == nil && n.IsPositive() {
			nominal = n
		}
		price, _ := value.Div(nominal).Round(4).Float64()
		obs = append(obs, model.Observation{Date: day, Price: price})
	}
	return obs, nil
}
