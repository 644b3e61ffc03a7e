// Package wallet covers the money side: transaction history, funding the
// wallet, withdrawals, and the bank plumbing behind withdrawal forms
package wallet

import (
	"context"
	"strconv"

	perr "fundlink/internal/platform/errors"
	pstrings "fundlink/internal/platform/strings"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family invalidated when wallet balances move
const Family = "wallet-transactions"

// Transaction is one ledger entry
type Transaction struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Amount      float64  `json:"amount"`
	Type        string   `json:"type"` // DEPOSIT, WITHDRAWAL, ...
	Description *string  `json:"description,omitempty"`
	ExternalRef *string  `json:"externalRef,omitempty"`
	LoanID      *string  `json:"loanId,omitempty"`
	Loan        *LoanRef `json:"loan,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// LoanRef is the loan a transaction settled, when there is one
type LoanRef struct {
	Title string `json:"title,omitempty"`
}

// Bank is a payout destination option
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ResolvedAccount is the verified holder of an account number
type ResolvedAccount struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
}

// FundPayload is the wallet top-up form
type FundPayload struct {
	Amount string `json:"amount" validate:"required"`
}

// WithdrawPayload is the withdrawal form
type WithdrawPayload struct {
	Amount        string `json:"amount" validate:"required"`
	BankCode      string `json:"bankCode" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,min=6,max=12"`
}

type fundRequest struct {
	Amount float64 `json:"amount"`
}

type withdrawRequest struct {
	Amount        float64 `json:"amount"`
	BankCode      string  `json:"bankCode"`
	AccountNumber string  `json:"accountNumber"`
}

type resolveRequest struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

type listPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	PageSize     int           `json:"pageSize"`
	TotalCount   int           `json:"totalCount"`
	TotalPages   int           `json:"totalPages"`
}

// Service exposes the wallet queries and mutations
type Service struct {
	api      *rest.Client
	registry *querykit.Registry
	notifier querykit.Notifier
}

// New builds the wallet service
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// FetchPage loads one page of the transaction ledger
func (s *Service) FetchPage(ctx context.Context, d querykit.Descriptor) (querykit.ListResult[Transaction, querykit.NoSummary], error) {
	var page listPage
	if err := s.api.Get(ctx, "/api/user/transactions", d.Values(), &page); err != nil {
		return querykit.ListResult[Transaction, querykit.NoSummary]{}, err
	}
	return querykit.ListResult[Transaction, querykit.NoSummary]{
		Items: page.Transactions,
		Page: querykit.Page{
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages,
		},
	}, nil
}

// Controller builds the list controller for the transactions view
func (s *Service) Controller() *querykit.Controller[Transaction, querykit.NoSummary] {
	return querykit.NewController(s.FetchPage, querykit.ControllerConfig{
		Query:    querykit.QueryConfig{Notifier: s.notifier},
		Registry: s.registry,
		Families: []string{Family},
	})
}

// FundForm returns a fresh top-up form
func (s *Service) FundForm() *querykit.Form[FundPayload] {
	return querykit.NewForm(FundPayload{})
}

// WithdrawForm returns a fresh withdrawal form
func (s *Service) WithdrawForm() *querykit.Form[WithdrawPayload] {
	return querykit.NewForm(WithdrawPayload{})
}

// Banks loads the payout bank list. It is small and rarely changes, so it
// is a plain call rather than a cached query
func (s *Service) Banks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := s.api.Get(ctx, "/api/paystack/banks", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ResolveAccount verifies an account number against a bank, returning the
// holder's name for confirmation before a withdrawal
func (s *Service) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (ResolvedAccount, error) {
	var acct ResolvedAccount
	err := s.api.Post(ctx, "/api/paystack/resolve-account",
		resolveRequest{BankCode: bankCode, AccountNumber: accountNumber}, &acct)
	return acct, err
}

// FundWallet builds the top-up mutation; a deposit moves the ledger and
// the dashboards
func (s *Service) FundWallet(form *querykit.Form[FundPayload]) *querykit.Mutation[FundPayload, struct{}] {
	return querykit.NewMutation(func(ctx context.Context, in FundPayload) (struct{}, error) {
		if err := form.Validate(); err != nil {
			return struct{}{}, err
		}
		amount, err := parseAmount(in.Amount)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.api.Post(ctx, "/api/user/wallet/fund", fundRequest{Amount: amount}, nil)
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family, "dashboard"},
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Wallet funded",
	})
}

// Withdraw builds the withdrawal mutation
func (s *Service) Withdraw(form *querykit.Form[WithdrawPayload]) *querykit.Mutation[WithdrawPayload, struct{}] {
	return querykit.NewMutation(func(ctx context.Context, in WithdrawPayload) (struct{}, error) {
		if err := form.Validate(); err != nil {
			return struct{}{}, err
		}
		amount, err := parseAmount(in.Amount)
		if err != nil {
			return struct{}{}, err
		}
		req := withdrawRequest{Amount: amount, BankCode: in.BankCode, AccountNumber: in.AccountNumber}
		return struct{}{}, s.api.Post(ctx, "/api/wallet/withdraw", req, nil)
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family, "dashboard"},
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Withdrawal requested",
	})
}

// parseAmount strips display formatting and rejects non-positive values
func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(pstrings.CleanAmount(raw), 64)
	if err != nil || amount <= 0 {
		return 0, perr.WithFields(
			perr.Validationf("Validation errors in: Amount"),
			map[string][]string{"amount": {"Amount must be a valid number"}},
		)
	}
	return amount, nil
}
