// Package dashboard is the landing-page summary for both roles, derived
// from the unified dashboard endpoint
package dashboard

import (
	"context"
	"math"

	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family every money-moving mutation invalidates
const Family = "dashboard"

// ActiveLoan is one of the borrower's in-flight loans with its funding
// progress, computed client side from the raw amounts
type ActiveLoan struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	AmountRequested float64 `json:"amountRequested"`
	AmountFunded    float64 `json:"amountFunded"`
	Progress        int     `json:"progress"`
}

// Data is the borrower's dashboard summary
type Data struct {
	TotalApplications   int          `json:"totalApplications"`
	PendingApplications int          `json:"pendingApplications"`
	ActiveLoans         []ActiveLoan `json:"activeLoans"`
}

// wireLoan is the active loan as the endpoint sends it, without progress
type wireLoan struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	AmountRequested float64 `json:"amountRequested"`
	AmountFunded    float64 `json:"amountFunded"`
}

type wireData struct {
	TotalApplications   int        `json:"totalApplications"`
	PendingApplications int        `json:"pendingApplications"`
	ActiveLoans         []wireLoan `json:"activeLoans"`
}

// Service exposes the dashboard query
type Service struct {
	api      *rest.Client
	notifier querykit.Notifier
	registry *querykit.Registry
}

// New builds the dashboard service
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// Fetch loads the dashboard summary. The descriptor is fixed: the
// dashboard takes no query state and is cached under a single key
func (s *Service) Fetch(ctx context.Context, _ querykit.Descriptor) (Data, error) {
	var wire wireData
	if err := s.api.Get(ctx, "/api/loans/dashboard", nil, &wire); err != nil {
		return Data{}, err
	}

	out := Data{
		TotalApplications:   wire.TotalApplications,
		PendingApplications: wire.PendingApplications,
		ActiveLoans:         make([]ActiveLoan, 0, len(wire.ActiveLoans)),
	}
	for _, l := range wire.ActiveLoans {
		out.ActiveLoans = append(out.ActiveLoans, ActiveLoan{
			ID:              l.ID,
			Title:           l.Title,
			Status:          l.Status,
			AmountRequested: l.AmountRequested,
			AmountFunded:    l.AmountFunded,
			Progress:        progress(l.AmountFunded, l.AmountRequested),
		})
	}
	return out, nil
}

// Query builds the dashboard query, registered under the dashboard family
// so funding, loan and wallet mutations refresh it
func (s *Service) Query() *querykit.Query[Data] {
	q := querykit.NewQuery(s.Fetch, querykit.QueryConfig{Notifier: s.notifier})
	if s.registry != nil {
		s.registry.Register(q, Family)
	}
	return q
}

// Load starts (or revalidates) the dashboard query
func (s *Service) Load(ctx context.Context, q *querykit.Query[Data]) {
	q.Load(ctx, querykit.Static(Family))
}

// progress is the funded percentage of a loan, clamped to 0..100
func progress(funded, requested float64) int {
	if requested <= 0 {
		return 0
	}
	p := int(math.Round(funded / requested * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
