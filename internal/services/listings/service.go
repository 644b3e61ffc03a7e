// Package listings is the open loan marketplace: the browsable list of
// loans accepting funding, and the funding flow itself
package listings

import (
	"context"
	"strconv"

	perr "fundlink/internal/platform/errors"
	pstrings "fundlink/internal/platform/strings"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family invalidated when listings change
const Family = "listings"

// Borrower is the loan owner as shown on a listing card
type Borrower struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	CreatedAt       string `json:"createdAt"`
}

// Loan is one open listing
type Loan struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AmountRequested float64  `json:"amountRequested"`
	AmountFunded    float64  `json:"amountFunded"`
	InterestRate    float64  `json:"interestRate"`
	Duration        int      `json:"duration"`
	DurationUnit    string   `json:"durationUnit,omitempty"`
	TotalInterest   float64  `json:"totalInterest"`
	Status          string   `json:"status"`
	BorrowerID      string   `json:"borrowerId"`
	Borrower        Borrower `json:"borrower"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

// listPage is the wire shape of the listings endpoint's data block; its
// pagination speaks totalItems where the rest of the API says totalCount
type listPage struct {
	Loans      []Loan `json:"loans"`
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
		TotalItems int `json:"totalItems"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

// FundPayload is the funding form: the amount as typed, formatting and all
type FundPayload struct {
	Amount string `json:"amount" validate:"required"`
}

// fundRequest is what actually goes over the wire
type fundRequest struct {
	Amount float64 `json:"amount"`
}

// Service exposes the listings queries and the fund-loan mutation
type Service struct {
	api      *rest.Client
	registry *querykit.Registry
	notifier querykit.Notifier
}

// New builds the listings service. registry may be nil when no
// cross-resource invalidation is wanted (tests, one-shot tools)
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// FetchPage loads one page of open listings for the given descriptor
func (s *Service) FetchPage(ctx context.Context, d querykit.Descriptor) (querykit.ListResult[Loan, querykit.NoSummary], error) {
	var page listPage
	if err := s.api.Get(ctx, "/api/loans/open", d.Values(), &page); err != nil {
		return querykit.ListResult[Loan, querykit.NoSummary]{}, err
	}
	return querykit.ListResult[Loan, querykit.NoSummary]{
		Items: page.Loans,
		Page: querykit.Page{
			Page:       page.Pagination.Page,
			PageSize:   page.Pagination.PageSize,
			TotalCount: page.Pagination.TotalItems,
			TotalPages: page.Pagination.TotalPages,
		},
	}, nil
}

// Controller builds the list controller for the marketplace view,
// registered under the listings family
func (s *Service) Controller() *querykit.Controller[Loan, querykit.NoSummary] {
	return querykit.NewController(s.FetchPage, querykit.ControllerConfig{
		Query:    querykit.QueryConfig{Notifier: s.notifier},
		Registry: s.registry,
		Families: []string{Family},
	})
}

// FundForm returns a fresh funding form
func (s *Service) FundForm() *querykit.Form[FundPayload] {
	return querykit.NewForm(FundPayload{})
}

// FundLoan builds the mutation that funds the loan with the given id. A
// successful funding changes the marketplace, the borrower's own list and
// both dashboards, so all three families are invalidated
func (s *Service) FundLoan(loanID string, form *querykit.Form[FundPayload]) *querykit.Mutation[FundPayload, Loan] {
	return querykit.NewMutation(func(ctx context.Context, in FundPayload) (Loan, error) {
		var loan Loan
		if err := form.Validate(); err != nil {
			return loan, err
		}
		amount, err := parseAmount(in.Amount)
		if err != nil {
			return loan, err
		}
		if err := s.api.Post(ctx, "/api/loans/"+loanID+"/fund", fundRequest{Amount: amount}, &loan); err != nil {
			return loan, err
		}
		return loan, nil
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family, "user-loans", "dashboard"},
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Funding request submitted",
	})
}

// parseAmount turns a user-formatted amount ("50,000") into its numeric
// value, rejecting anything that is not a positive number
func parseAmount(raw string) (float64, error) {
	cleaned := pstrings.CleanAmount(raw)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount <= 0 {
		return 0, perr.WithFields(
			perr.Validationf("Validation errors in: Amount"),
			map[string][]string{"amount": {"Amount must be a valid number"}},
		)
	}
	return amount, nil
}
