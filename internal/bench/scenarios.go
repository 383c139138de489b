package bench

import (
	"sort"
	"strings"
	"time"
)

// Outcome is what one scenario run produces. Result is serialized to JSON for
// the proxy memory metric; Metadata ends up in the report.
type Outcome struct {
	Result   any
	Metadata map[string]any
}

// Scenario is one benchmarked workload over a dataset in the data directory
type Scenario struct {
	Name    string
	Dataset string
	Run     func(path string) (Outcome, error)
}

// Keywords selects the posts of the keyword engagement scenario
var Keywords = []string{"python", "data", "machine learning", "ai", "analytics"}

// Scenarios returns the fixed benchmark workloads in report order
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "sector_rollup", Dataset: "fortune500.csv", Run: SectorRollup},
		{Name: "keyword_engagement", Dataset: "hacker_news.csv", Run: KeywordEngagement},
	}
}

type sectorTotal struct {
	Sector  string  `json:"sector"`
	Profits float64 `json:"profits"`
}

// SectorRollup sums profits per sector and reports the most profitable one
func SectorRollup(path string) (Outcome, error) {
	t, err := loadCSV(path)
	if err != nil {
		return Outcome{}, err
	}
	cols, err := t.columns("sector", "profits")
	if err != nil {
		return Outcome{}, err
	}

	sums := make(map[string]float64)
	for _, rec := range t.rows {
		sector := field(rec, cols[0])
		if sector == "" {
			continue
		}
		sums[sector] += number(field(rec, cols[1]))
	}

	totals := make([]sectorTotal, 0, len(sums))
	for s, v := range sums {
		totals = append(totals, sectorTotal{Sector: s, Profits: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Profits != totals[j].Profits {
			return totals[i].Profits > totals[j].Profits
		}
		return totals[i].Sector < totals[j].Sector
	})

	meta := map[string]any{
		"rows":    len(t.rows),
		"columns": len(t.header),
	}
	if len(totals) > 0 {
		meta["top_sector"] = totals[0].Sector
		meta["top_sector_profits"] = totals[0].Profits
	}
	return Outcome{Result: map[string]any{"sector_totals": totals}, Metadata: meta}, nil
}

// createdAtLayouts are tried in order when parsing post timestamps
var createdAtLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseYear(s string) (int, bool) {
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Year(), true
		}
	}
	return 0, false
}

type yearStats struct {
	Year         int     `json:"year"`
	Posts        int     `json:"posts"`
	MeanComments float64 `json:"mean_comments"`
	MaxComments  float64 `json:"max_comments"`
}

// KeywordEngagement computes yearly comment statistics of posts whose title
// mentions one of Keywords. Posts with an unparsable timestamp count towards the
// filtered rows but belong to no year.
func KeywordEngagement(path string) (Outcome, error) {
	t, err := loadCSV(path)
	if err != nil {
		return Outcome{}, err
	}
	cols, err := t.columns("title", "created_at", "num_comments")
	if err != nil {
		return Outcome{}, err
	}

	byYear := make(map[int]*yearStats)
	sums := make(map[int]float64)
	filtered := 0
	globalMax := 0.0
	for _, rec := range t.rows {
		if !mentionsKeyword(field(rec, cols[0])) {
			continue
		}
		comments := number(field(rec, cols[2]))
		if filtered == 0 || comments > globalMax {
			globalMax = comments
		}
		filtered++

		year, ok := parseYear(field(rec, cols[1]))
		if !ok {
			continue
		}
		ys, ok := byYear[year]
		if !ok {
			ys = &yearStats{Year: year, MaxComments: comments}
			byYear[year] = ys
		}
		ys.Posts++
		sums[year] += comments
		if comments > ys.MaxComments {
			ys.MaxComments = comments
		}
	}

	years := make([]yearStats, 0, len(byYear))
	for y, ys := range byYear {
		ys.MeanComments = sums[y] / float64(ys.Posts)
		years = append(years, *ys)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	return Outcome{
		Result: map[string]any{"years": years},
		Metadata: map[string]any{
			"filtered_rows": filtered,
			"max_comments":  globalMax,
		},
	}, nil
}

func mentionsKeyword(title string) bool {
	title = strings.ToLower(title)
	for _, k := range Keywords {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}
