package models

import (
	"context"
	"sort"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const activeClientWindow = 90 * 24 * time.Hour

// quotationSummary is the slice of a quotation the dashboards aggregate over.
type quotationSummary struct {
	ID            int
	CompanyId     int
	DestinationId int
	Status        QuotationStatus
	TotalCost     decimal.Decimal
	CreatedAt     time.Time
}

type opportunitySummary struct {
	Stage       OpportunityStage
	Amount      decimal.Decimal
	Probability int
}

type StatusCount struct {
	Status QuotationStatus `json:"status"`
	Count  int             `json:"count"`
}

type MonthlyPoint struct {
	Month   string          `json:"month"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DestinationShare struct {
	DestinationId int             `json:"destination_id"`
	Name          string          `json:"name"`
	Count         int             `json:"count"`
	Share         decimal.Decimal `json:"share"`
}

type PipelineStage struct {
	Stage          OpportunityStage `json:"stage"`
	Label          string           `json:"label"`
	Count          int              `json:"count"`
	Amount         decimal.Decimal  `json:"amount"`
	WeightedAmount decimal.Decimal  `json:"weighted_amount"`
}

type Dashboard struct {
	TotalQuotations int                `json:"total_quotations"`
	StatusCounts    []StatusCount      `json:"status_counts"`
	Revenue         decimal.Decimal    `json:"revenue"`
	Currency        string             `json:"currency"`
	Monthly         []MonthlyPoint     `json:"monthly"`
	TopDestinations []DestinationShare `json:"top_destinations"`
	Pipeline        []PipelineStage    `json:"pipeline"`
	ActiveClients   int                `json:"active_clients"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// CountByStatus returns a count for every status, zero counts included.
func CountByStatus(rows []quotationSummary) []StatusCount {
	counts := make(map[QuotationStatus]int)
	for _, r := range rows {
		counts[r.Status]++
	}
	statuses := AllQuotationStatuses()
	out := make([]StatusCount, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

func Revenue(rows []quotationSummary) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Status.CountsAsRevenue() {
			total = total.Add(r.TotalCost)
		}
	}
	return total
}

// MonthlySeries buckets quotations into the last n calendar months ending with now's month.
// Revenue only counts quotations past acceptance.
func MonthlySeries(rows []quotationSummary, now time.Time, months int) []MonthlyPoint {
	start := utils.LastMonthsStart(now, months)
	points := make([]MonthlyPoint, 0, months)
	index := make(map[string]int, months)
	for m := start; !m.After(now); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		index[key] = len(points)
		points = append(points, MonthlyPoint{Month: key, Revenue: decimal.Zero})
	}
	for _, r := range rows {
		key := r.CreatedAt.In(now.Location()).Format("2006-01")
		i, ok := index[key]
		if !ok {
			continue
		}
		points[i].Count++
		if r.Status.CountsAsRevenue() {
			points[i].Revenue = points[i].Revenue.Add(r.TotalCost)
		}
	}
	return points
}

// TopDestinations ranks destinations by quotation count. Share is a percentage of all
// quotations rounded to two places; ties keep the lower destination id first.
func TopDestinations(rows []quotationSummary, names map[int]string, limit int) []DestinationShare {
	if len(rows) == 0 {
		return []DestinationShare{}
	}
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.DestinationId]++
	}
	out := make([]DestinationShare, 0, len(counts))
	total := decimal.NewFromInt(int64(len(rows)))
	for id, n := range counts {
		out = append(out, DestinationShare{
			DestinationId: id,
			Name:          names[id],
			Count:         n,
			Share:         decimal.NewFromInt(int64(n)).Mul(decimal.NewFromInt(100)).Div(total).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DestinationId < out[j].DestinationId
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func PipelineByStage(opps []opportunitySummary) []PipelineStage {
	byStage := make(map[OpportunityStage]*PipelineStage)
	out := make([]PipelineStage, 0, len(opportunityStages))
	for _, stage := range opportunityStages {
		out = append(out, PipelineStage{Stage: stage, Label: stage.Label(), Amount: decimal.Zero, WeightedAmount: decimal.Zero})
	}
	for i := range out {
		byStage[out[i].Stage] = &out[i]
	}
	for _, o := range opps {
		p, ok := byStage[o.Stage]
		if !ok {
			continue
		}
		p.Count++
		p.Amount = p.Amount.Add(o.Amount)
		p.WeightedAmount = p.WeightedAmount.Add(Opportunity{Amount: o.Amount, Probability: o.Probability}.WeightedAmount())
	}
	return out
}

// ActiveClients counts distinct companies with a quotation created in the last 90 days.
func ActiveClients(rows []quotationSummary, now time.Time) int {
	since := now.Add(-activeClientWindow)
	seen := make(map[int]struct{})
	for _, r := range rows {
		if !r.CreatedAt.Before(since) {
			seen[r.CompanyId] = struct{}{}
		}
	}
	return len(seen)
}

// GetDashboard loads quotations, destinations and opportunities concurrently and
// aggregates them for the back office overview.
func GetDashboard(ctx context.Context, months int) (*Dashboard, error) {
	if months <= 0 || months > 24 {
		months = 6
	}
	db := config.GetDB()

	var quotations []quotationSummary
	var destinations []*Destination
	var opps []opportunitySummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).Model(&Quotation{}).
			Select("id, company_id, destination_id, status, total_cost, created_at").
			Scan(&quotations).Error
	})
	g.Go(func() error {
		var err error
		destinations, err = GetDestinations(gctx)
		return err
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&Opportunity{}).
			Select("stage, amount, probability").
			Scan(&opps).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(destinations))
	for _, d := range destinations {
		names[d.ID] = d.DisplayName()
	}
	now := utils.LocalNow()
	return &Dashboard{
		TotalQuotations: len(quotations),
		StatusCounts:    CountByStatus(quotations),
		Revenue:         Revenue(quotations),
		Currency:        config.DefaultCurrency(),
		Monthly:         MonthlySeries(quotations, now, months),
		TopDestinations: TopDestinations(quotations, names, 5),
		Pipeline:        PipelineByStage(opps),
		ActiveClients:   ActiveClients(quotations, now),
		GeneratedAt:     now,
	}, nil
}
