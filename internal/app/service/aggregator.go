package service

import (
	"math"
	"sort"
	"time"

	"github.com/sifan077/PowerBio/internal/app/model"
)

const (
	topLinksLimit     = 5
	topCountriesLimit = 5

	unknownCountry = "unknown"
	otherBucket    = "other"

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// Overview is the analytics dashboard payload.
type Overview struct {
	Overview       OverviewTotals `json:"overview"`
	ViewsChart     []DailyViews   `json:"viewsChart"`
	TopLinks       []TopLink      `json:"topLinks"`
	TrafficSources []SourceShare  `json:"trafficSources"`
	Devices        []DeviceShare  `json:"devices"`
	TopCountries   []CountryShare `json:"topCountries"`
}

type OverviewTotals struct {
	TotalViews     int         `json:"totalViews"`
	UniqueVisitors int         `json:"uniqueVisitors"`
	TotalClicks    int         `json:"totalClicks"`
	ClickRate      float64     `json:"clickRate"`
	Period         PeriodRange `json:"period"`
}

type PeriodRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DailyViews struct {
	Date           string `json:"date"`
	Views          int    `json:"views"`
	UniqueVisitors int    `json:"uniqueVisitors"`
}

type TopLink struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Clicks    int     `json:"clicks"`
	ClickRate float64 `json:"clickRate"`
}

type SourceShare struct {
	Source     string  `json:"source"`
	Views      int     `json:"views"`
	Percentage float64 `json:"percentage"`
}

type DeviceShare struct {
	Type       string  `json:"type"`
	Views      int     `json:"views"`
	Percentage float64 `json:"percentage"`
}

type CountryShare struct {
	Country    string  `json:"country"`
	Views      int     `json:"views"`
	Percentage float64 `json:"percentage"`
}

type dayBucket struct {
	views    int
	visitors map[string]struct{}
}

// Summarize folds the events of one profile into an Overview. Events outside
// the window are ignored; blocks supply the titles of the top links.
func Summarize(events []model.AnalyticsEvent, blocks []model.Block, w Window) *Overview {
	var (
		totalViews, totalClicks int
		visitors                = make(map[string]struct{})
		days                    = make(map[string]*dayBucket, w.Days)
		clicksByBlock           = make(map[string]int)
		sources                 = make(map[string]int)
		devices                 = make(map[string]int)
		countries               = make(map[string]int)
	)

	dates := w.Dates()
	for _, d := range dates {
		days[d] = &dayBucket{visitors: make(map[string]struct{})}
	}

	for i := range events {
		e := &events[i]
		if e.CreatedAt.Before(w.From) || e.CreatedAt.After(w.To) {
			continue
		}

		switch e.EventType {
		case model.EventView:
			totalViews++
			visitors[e.IPHash] = struct{}{}
			if day, ok := days[e.CreatedAt.UTC().Format(time.DateOnly)]; ok {
				day.views++
				day.visitors[e.IPHash] = struct{}{}
			}
			sources[orDefault(e.TrafficSource, otherBucket)]++
			devices[orDefault(e.DeviceType, otherBucket)]++
			countries[orDefault(e.Country, unknownCountry)]++
		case model.EventClick:
			totalClicks++
			if e.BlockID != nil {
				clicksByBlock[*e.BlockID]++
			}
		}
	}

	out := &Overview{
		Overview: OverviewTotals{
			TotalViews:     totalViews,
			UniqueVisitors: len(visitors),
			TotalClicks:    totalClicks,
			ClickRate:      percent(totalClicks, totalViews, 2),
			Period: PeriodRange{
				From: w.From.Format(isoMillis),
				To:   w.To.Format(isoMillis),
			},
		},
		ViewsChart: make([]DailyViews, 0, len(dates)),
	}

	for _, d := range dates {
		out.ViewsChart = append(out.ViewsChart, DailyViews{
			Date:           d,
			Views:          days[d].views,
			UniqueVisitors: len(days[d].visitors),
		})
	}

	out.TopLinks = topLinks(blocks, clicksByBlock, totalViews)

	out.TrafficSources = make([]SourceShare, 0, len(sources))
	for _, c := range rank(sources, totalViews) {
		out.TrafficSources = append(out.TrafficSources, SourceShare{Source: c.key, Views: c.views, Percentage: c.pct})
	}

	out.Devices = make([]DeviceShare, 0, len(devices))
	for _, c := range rank(devices, totalViews) {
		out.Devices = append(out.Devices, DeviceShare{Type: c.key, Views: c.views, Percentage: c.pct})
	}

	// unknown still counts towards totalViews, it is only hidden from the ranking
	delete(countries, unknownCountry)
	out.TopCountries = make([]CountryShare, 0, topCountriesLimit)
	for _, c := range rank(countries, totalViews) {
		if len(out.TopCountries) == topCountriesLimit {
			break
		}
		out.TopCountries = append(out.TopCountries, CountryShare{Country: c.key, Views: c.views, Percentage: c.pct})
	}

	return out
}

// topLinks ranks blocks by clicks. Rates are against total profile views.
func topLinks(blocks []model.Block, clicks map[string]int, totalViews int) []TopLink {
	links := make([]TopLink, 0, topLinksLimit)
	for i := range blocks {
		n := clicks[blocks[i].ID]
		if n == 0 {
			continue
		}
		title, url := blocks[i].Display()
		links = append(links, TopLink{
			ID:        blocks[i].ID,
			Title:     title,
			URL:       url,
			Clicks:    n,
			ClickRate: percent(n, totalViews, 1),
		})
	}

	// stable so equal counts keep block position order
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Clicks > links[j].Clicks
	})
	if len(links) > topLinksLimit {
		links = links[:topLinksLimit]
	}
	return links
}

type share struct {
	key   string
	views int
	pct   float64
}

// rank orders counts by views descending, then key ascending.
func rank(counts map[string]int, total int) []share {
	out := make([]share, 0, len(counts))
	for k, v := range counts {
		out = append(out, share{key: k, views: v, pct: percent(v, total, 1)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].views != out[j].views {
			return out[i].views > out[j].views
		}
		return out[i].key < out[j].key
	})
	return out
}

// percent returns part/total*100 rounded to places decimals, 0 when total is 0.
func percent(part, total, places int) float64 {
	if total == 0 {
		return 0
	}
	scale := math.Pow10(places)
	return math.Round(float64(part)/float64(total)*100*scale) / scale
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
