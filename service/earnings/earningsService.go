package earningssvc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	earningsrepo "github.com/OMARxKHALID/LMS-server/repository/earnings"
)

type Timeframe string

const (
	Week  Timeframe = "week"
	Month Timeframe = "month"
	Year  Timeframe = "year"
)

var ErrBadTimeframe = errors.New("timeframe must be week, month or year")

const cacheTTL = 5 * time.Minute

// Report is the full earnings view for one calendar window.
type Report struct {
	Timeframe              Timeframe          `json:"timeframe"`
	WindowStart            time.Time          `json:"window_start"`
	WindowEnd              time.Time          `json:"window_end"`
	TotalEarnings          float64            `json:"total_earnings"`
	PreviousPeriodEarnings float64            `json:"previous_period_earnings"`
	EarningsByCategory     map[string]float64 `json:"earnings_by_category"`
	TopSellingBooks        []BookEarnings     `json:"top_selling_books"`
	TimeSeries             []Bucket           `json:"time_series"`
}

type BookEarnings struct {
	BookID   int64   `json:"book_id"`
	Title    string  `json:"title"`
	Earnings float64 `json:"earnings"`
}

// Bucket is one zero-filled slot of the time series: a day for week
// and month windows, a month for year windows.
type Bucket struct {
	Label    string  `json:"label"`
	Earnings float64 `json:"earnings"`
}

type Repo interface {
	BorrowEarnings(ctx context.Context, from, to time.Time) ([]earningsrepo.Row, error)
	TransactionEarnings(ctx context.Context, from, to time.Time) ([]earningsrepo.Row, error)
}

// Cache is optional; nil disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}

type Service interface {
	Report(ctx context.Context, tf Timeframe) (*Report, error)
}

type service struct {
	r     Repo
	cache Cache
	now   func() time.Time
}

func New(r Repo, cache Cache) Service {
	return &service{r: r, cache: cache, now: time.Now}
}

// NewWithClock pins "now" for tests.
func NewWithClock(r Repo, cache Cache, now func() time.Time) Service {
	return &service{r: r, cache: cache, now: now}
}

func (s *service) Report(ctx context.Context, tf Timeframe) (*Report, error) {
	now := s.now()
	start, end, err := window(tf, now)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("earnings:%s:%s", tf, start.Format("2006-01-02"))
	if s.cache != nil {
		var cached Report
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	borrows, err := s.r.BorrowEarnings(ctx, start, end)
	if err != nil {
		return nil, err
	}
	purchases, err := s.r.TransactionEarnings(ctx, start, end)
	if err != nil {
		return nil, err
	}

	prevStart, prevEnd := previousWindow(tf, start)
	prevBorrows, err := s.r.BorrowEarnings(ctx, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}
	prevPurchases, err := s.r.TransactionEarnings(ctx, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Timeframe:              tf,
		WindowStart:            start,
		WindowEnd:              end,
		TotalEarnings:          round2(sumRows(borrows) + sumRows(purchases)),
		PreviousPeriodEarnings: round2(sumRows(prevBorrows) + sumRows(prevPurchases)),
		EarningsByCategory:     byCategory(borrows),
		TopSellingBooks:        topBooks(borrows, purchases, 5),
		TimeSeries:             timeSeries(tf, start, end, borrows, purchases),
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rep, cacheTTL)
	}
	return rep, nil
}

// window returns the calendar-aligned [start, end) containing now.
// Weeks start on Monday.
func window(tf Timeframe, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch tf {
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case Month:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil
	case Year:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, ErrBadTimeframe
}

func previousWindow(tf Timeframe, start time.Time) (time.Time, time.Time) {
	switch tf {
	case Week:
		return start.AddDate(0, 0, -7), start
	case Month:
		return start.AddDate(0, -1, 0), start
	default:
		return start.AddDate(-1, 0, 0), start
	}
}

func sumRows(rows []earningsrepo.Row) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.Amount
	}
	return total
}

func byCategory(borrows []earningsrepo.Row) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range borrows {
		out[r.Category] = round2(out[r.Category] + r.Amount)
	}
	return out
}

// topBooks ranks by combined earnings, ties broken by first
// appearance in the input.
func topBooks(borrows, purchases []earningsrepo.Row, n int) []BookEarnings {
	totals := make(map[int64]*BookEarnings)
	var order []int64
	for _, r := range append(append([]earningsrepo.Row{}, borrows...), purchases...) {
		be, ok := totals[r.BookID]
		if !ok {
			be = &BookEarnings{BookID: r.BookID, Title: r.Title}
			totals[r.BookID] = be
			order = append(order, r.BookID)
		}
		be.Earnings = round2(be.Earnings + r.Amount)
	}

	ranked := make([]BookEarnings, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *totals[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Earnings > ranked[j].Earnings })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func timeSeries(tf Timeframe, start, end time.Time, borrows, purchases []earningsrepo.Row) []Bucket {
	daily := tf != Year
	var buckets []Bucket
	index := make(map[string]int)

	if daily {
		for t := start; t.Before(end); t = t.AddDate(0, 0, 1) {
			label := t.Format("2006-01-02")
			index[label] = len(buckets)
			buckets = append(buckets, Bucket{Label: label})
		}
	} else {
		for t := start; t.Before(end); t = t.AddDate(0, 1, 0) {
			label := t.Format("2006-01")
			index[label] = len(buckets)
			buckets = append(buckets, Bucket{Label: label})
		}
	}

	layout := "2006-01-02"
	if !daily {
		layout = "2006-01"
	}
	for _, r := range append(append([]earningsrepo.Row{}, borrows...), purchases...) {
		if i, ok := index[r.Date.Format(layout)]; ok {
			buckets[i].Earnings = round2(buckets[i].Earnings + r.Amount)
		}
	}
	return buckets
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
