// Package fundedloans is the lender's position book: loans they have
// funded, with the aggregate earnings summary for the current filter
package fundedloans

import (
	"context"

	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family invalidated when lender positions change
const Family = "funded-loans"

// Borrower is the trimmed borrower block on a funded position
type Borrower struct {
	ID              string `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// Loan is one funded position with the lender's share and earnings
type Loan struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	AmountRequested  float64  `json:"amountRequested"`
	AmountFunded     float64  `json:"amountFunded"`
	MyFundingAmount  float64  `json:"myFundingAmount"`
	InterestRate     float64  `json:"interestRate"`
	Duration         int      `json:"duration"`
	DurationUnit     string   `json:"durationUnit"`
	TotalInterest    float64  `json:"totalInterest"`
	ExpectedEarnings float64  `json:"expectedEarnings"`
	ActualEarnings   float64  `json:"actualEarnings"`
	PrincipalRepaid  float64  `json:"principalRepaid"`
	Status           string   `json:"status"`
	Borrower         Borrower `json:"borrower"`
	FundingDate      string   `json:"fundingDate"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// Summary aggregates the lender's book for the current filter; it rides
// beside the pagination and is superseded wholesale on every fetch
type Summary struct {
	TotalFundedAmount     float64 `json:"totalFundedAmount"`
	TotalExpectedEarnings float64 `json:"totalExpectedEarnings"`
	TotalActualEarnings   float64 `json:"totalActualEarnings"`
	ActiveLoansCount      int     `json:"activeLoansCount"`
	RepaidLoansCount      int     `json:"repaidLoansCount"`
}

type listPage struct {
	Loans      []Loan `json:"loans"`
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
		TotalCount int `json:"totalCount"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
	Summary Summary `json:"summary"`
}

// Service exposes the funded loans list
type Service struct {
	api      *rest.Client
	registry *querykit.Registry
	notifier querykit.Notifier
}

// New builds the funded loans service
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// FetchPage loads one page of funded positions with its filter summary
func (s *Service) FetchPage(ctx context.Context, d querykit.Descriptor) (querykit.ListResult[Loan, Summary], error) {
	var page listPage
	if err := s.api.Get(ctx, "/api/loans/funded", d.Values(), &page); err != nil {
		return querykit.ListResult[Loan, Summary]{}, err
	}
	summary := page.Summary
	return querykit.ListResult[Loan, Summary]{
		Items: page.Loans,
		Page: querykit.Page{
			Page:       page.Pagination.Page,
			PageSize:   page.Pagination.PageSize,
			TotalCount: page.Pagination.TotalCount,
			TotalPages: page.Pagination.TotalPages,
		},
		Summary: &summary,
	}, nil
}

// Controller builds the list controller for the funded loans view
func (s *Service) Controller() *querykit.Controller[Loan, Summary] {
	return querykit.NewController(s.FetchPage, querykit.ControllerConfig{
		Query:    querykit.QueryConfig{Notifier: s.notifier},
		Registry: s.registry,
		Families: []string{Family},
	})
}
