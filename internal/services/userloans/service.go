// Package userloans is the borrower's side of the loan book: their own
// applications, plus the create and update flows
package userloans

import (
	"context"

	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family invalidated when the borrower's loans change
const Family = "user-loans"

// Loan is one of the borrower's own applications
type Loan struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	AmountRequested float64 `json:"amountRequested"`
	AmountFunded    float64 `json:"amountFunded"`
	InterestRate    float64 `json:"interestRate"`
	Duration        int     `json:"duration"`
	DurationUnit    string  `json:"durationUnit,omitempty"`
	TotalInterest   float64 `json:"totalInterest"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// listPage is the wire shape of the my-loans data block: pagination is
// flattened beside the loans rather than nested
type listPage struct {
	Loans      []Loan `json:"loans"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
	TotalPages int    `json:"totalPages"`
}

// CreatePayload is the loan application form. Numeric fields stay strings
// until submission, as typed
type CreatePayload struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description" validate:"required"`
	AmountRequested string `json:"amountRequested" validate:"required,numeric"`
	InterestRate    string `json:"interestRate" validate:"required,numeric"`
	Duration        string `json:"duration" validate:"required,number"`
	DurationUnit    string `json:"durationUnit" validate:"required,oneof=DAYS WEEKS MONTHS YEARS"`
}

// UpdatePayload edits a pending application's presentation fields
type UpdatePayload struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Service exposes the borrower's loan list and its mutations
type Service struct {
	api      *rest.Client
	registry *querykit.Registry
	notifier querykit.Notifier
}

// New builds the user loans service
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// FetchPage loads one page of the borrower's own loans
func (s *Service) FetchPage(ctx context.Context, d querykit.Descriptor) (querykit.ListResult[Loan, querykit.NoSummary], error) {
	var page listPage
	if err := s.api.Get(ctx, "/api/loans/my-loans", d.Values(), &page); err != nil {
		return querykit.ListResult[Loan, querykit.NoSummary]{}, err
	}
	return querykit.ListResult[Loan, querykit.NoSummary]{
		Items: page.Loans,
		Page: querykit.Page{
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages,
		},
	}, nil
}

// Controller builds the list controller for the my-loans view
func (s *Service) Controller() *querykit.Controller[Loan, querykit.NoSummary] {
	return querykit.NewController(s.FetchPage, querykit.ControllerConfig{
		Query:    querykit.QueryConfig{Notifier: s.notifier},
		Registry: s.registry,
		Families: []string{Family},
	})
}

// CreateForm returns a fresh application form with the default duration unit
func (s *Service) CreateForm() *querykit.Form[CreatePayload] {
	return querykit.NewForm(CreatePayload{DurationUnit: "MONTHS"})
}

// CreateLoan builds the application-submission mutation. The payload is
// validated on the form before the call; a new application changes this
// list and the borrower dashboard
func (s *Service) CreateLoan(form *querykit.Form[CreatePayload]) *querykit.Mutation[CreatePayload, Loan] {
	return querykit.NewMutation(func(ctx context.Context, in CreatePayload) (Loan, error) {
		var loan Loan
		if err := form.Validate(); err != nil {
			return loan, err
		}
		if err := s.api.Post(ctx, "/api/loans/create-loan", in, &loan); err != nil {
			return loan, err
		}
		return loan, nil
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family, "dashboard"},
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Loan request submitted",
	})
}

// UpdateLoan builds the edit mutation for the loan with the given id
func (s *Service) UpdateLoan(loanID string, form *querykit.Form[UpdatePayload]) *querykit.Mutation[UpdatePayload, Loan] {
	return querykit.NewMutation(func(ctx context.Context, in UpdatePayload) (Loan, error) {
		var loan Loan
		if err := form.Validate(); err != nil {
			return loan, err
		}
		if err := s.api.Patch(ctx, "/api/loans/"+loanID, in, &loan); err != nil {
			return loan, err
		}
		return loan, nil
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family},
		Form:           form,
		Notifier:       s.notifier,
		SuccessMessage: "Loan updated",
	})
}
