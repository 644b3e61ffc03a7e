package stubapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	perr "fundlink/internal/platform/errors"
	pnet "fundlink/internal/platform/net"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/platform/net/http/bind"
	pstrings "fundlink/internal/platform/strings"
)

type borrowerDTO struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	CreatedAt       string `json:"createdAt"`
}

type loanDTO struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	AmountRequested float64      `json:"amountRequested"`
	AmountFunded    float64      `json:"amountFunded"`
	InterestRate    float64      `json:"interestRate"`
	Duration        int          `json:"duration"`
	DurationUnit    string       `json:"durationUnit"`
	TotalInterest   float64      `json:"totalInterest"`
	Status          string       `json:"status"`
	BorrowerID      string       `json:"borrowerId"`
	Borrower        *borrowerDTO `json:"borrower,omitempty"`
	CreatedAt       string       `json:"createdAt"`
	UpdatedAt       string       `json:"updatedAt"`
}

func (s *service) toLoanDTO(l *loan, withBorrower bool) loanDTO {
	d := loanDTO{
		ID:              l.ID,
		Title:           l.Title,
		Description:     l.Description,
		AmountRequested: l.AmountRequested,
		AmountFunded:    l.AmountFunded,
		InterestRate:    l.InterestRate,
		Duration:        l.Duration,
		DurationUnit:    l.DurationUnit,
		TotalInterest:   l.totalInterest(),
		Status:          l.Status,
		BorrowerID:      l.BorrowerID,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       l.UpdatedAt.Format(time.RFC3339),
	}
	if withBorrower {
		if b := s.store.users[l.BorrowerID]; b != nil {
			d.Borrower = &borrowerDTO{
				ID:              b.ID,
				Email:           b.Email,
				FirstName:       b.FirstName,
				LastName:        b.LastName,
				Role:            b.Role,
				IsEmailVerified: b.verified(),
				CreatedAt:       b.CreatedAt.Format(time.RFC3339),
			}
		}
	}
	return d
}

// parseListParams reads the shared list query surface off the URL
func parseListParams(r *http.Request) listParams {
	q := r.URL.Query()
	p := listParams{
		Page:     1,
		PageSize: 10,
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		SortBy:   q.Get("sortBy"),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil && v > 0 {
		p.PageSize = v
	}
	if v, err := strconv.ParseFloat(q.Get("minAmount"), 64); err == nil {
		p.MinAmount = &v
	}
	if v, err := strconv.ParseFloat(q.Get("maxAmount"), 64); err == nil {
		p.MaxAmount = &v
	}
	return p
}

type nestedPage struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

func (s *service) openLoans(r *http.Request) phttp.Response {
	p := parseListParams(r)
	userID := pnet.UserID(r.Context())

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	all := s.store.openLoans(userID, p)
	pageItems, total, totalPages := paginate(all, p.Page, p.PageSize)

	loans := make([]loanDTO, 0, len(pageItems))
	for _, l := range pageItems {
		loans = append(loans, s.toLoanDTO(l, true))
	}
	return phttp.OK(struct {
		Loans      []loanDTO  `json:"loans"`
		Pagination nestedPage `json:"pagination"`
	}{
		Loans: loans,
		Pagination: nestedPage{
			Page: p.Page, PageSize: p.PageSize,
			TotalItems: total, TotalPages: totalPages,
		},
	})
}

func (s *service) myLoans(r *http.Request) phttp.Response {
	p := parseListParams(r)
	userID := pnet.UserID(r.Context())

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	all := s.store.myLoans(userID, p)
	pageItems, total, totalPages := paginate(all, p.Page, p.PageSize)

	loans := make([]loanDTO, 0, len(pageItems))
	for _, l := range pageItems {
		loans = append(loans, s.toLoanDTO(l, false))
	}
	// my-loans keeps its pagination flat beside the items
	return phttp.OK(struct {
		Loans      []loanDTO `json:"loans"`
		Page       int       `json:"page"`
		PageSize   int       `json:"pageSize"`
		TotalCount int       `json:"totalCount"`
		TotalPages int       `json:"totalPages"`
	}{
		Loans: loans,
		Page:  p.Page, PageSize: p.PageSize,
		TotalCount: total, TotalPages: totalPages,
	})
}

type fundedLoanDTO struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	AmountRequested  float64 `json:"amountRequested"`
	AmountFunded     float64 `json:"amountFunded"`
	MyFundingAmount  float64 `json:"myFundingAmount"`
	InterestRate     float64 `json:"interestRate"`
	Duration         int     `json:"duration"`
	DurationUnit     string  `json:"durationUnit"`
	TotalInterest    float64 `json:"totalInterest"`
	ExpectedEarnings float64 `json:"expectedEarnings"`
	ActualEarnings   float64 `json:"actualEarnings"`
	PrincipalRepaid  float64 `json:"principalRepaid"`
	Status           string  `json:"status"`
	Borrower         struct {
		ID              string `json:"id"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		IsEmailVerified bool   `json:"isEmailVerified"`
	} `json:"borrower"`
	FundingDate string `json:"fundingDate"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type fundedSummary struct {
	TotalFundedAmount     float64 `json:"totalFundedAmount"`
	TotalExpectedEarnings float64 `json:"totalExpectedEarnings"`
	TotalActualEarnings   float64 `json:"totalActualEarnings"`
	ActiveLoansCount      int     `json:"activeLoansCount"`
	RepaidLoansCount      int     `json:"repaidLoansCount"`
}

func (s *service) fundedLoans(r *http.Request) phttp.Response {
	p := parseListParams(r)
	userID := pnet.UserID(r.Context())

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	all := s.store.fundedLoans(userID, p)

	var sum fundedSummary
	for _, l := range all {
		mine := fundingAmount(l, userID)
		sum.TotalFundedAmount += mine
		sum.TotalExpectedEarnings += mine * l.InterestRate / 100
		sum.TotalActualEarnings += l.ActualEarnings[userID]
		switch l.Status {
		case statusActive:
			sum.ActiveLoansCount++
		case statusRepaid:
			sum.RepaidLoansCount++
		}
	}

	pageItems, total, totalPages := paginate(all, p.Page, p.PageSize)
	loans := make([]fundedLoanDTO, 0, len(pageItems))
	for _, l := range pageItems {
		mine := fundingAmount(l, userID)
		d := fundedLoanDTO{
			ID:               l.ID,
			Title:            l.Title,
			Description:      l.Description,
			AmountRequested:  l.AmountRequested,
			AmountFunded:     l.AmountFunded,
			MyFundingAmount:  mine,
			InterestRate:     l.InterestRate,
			Duration:         l.Duration,
			DurationUnit:     l.DurationUnit,
			TotalInterest:    l.totalInterest(),
			ExpectedEarnings: mine * l.InterestRate / 100,
			ActualEarnings:   l.ActualEarnings[userID],
			PrincipalRepaid:  l.PrincipalRepaid,
			Status:           l.Status,
			FundingDate:      lastFunding(l).Format(time.RFC3339),
			CreatedAt:        l.CreatedAt.Format(time.RFC3339),
			UpdatedAt:        l.UpdatedAt.Format(time.RFC3339),
		}
		if b := s.store.users[l.BorrowerID]; b != nil {
			d.Borrower.ID = b.ID
			d.Borrower.FirstName = b.FirstName
			d.Borrower.LastName = b.LastName
			d.Borrower.IsEmailVerified = b.verified()
		}
		loans = append(loans, d)
	}

	return phttp.OK(struct {
		Loans      []fundedLoanDTO `json:"loans"`
		Pagination struct {
			Page       int `json:"page"`
			PageSize   int `json:"pageSize"`
			TotalCount int `json:"totalCount"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
		Summary fundedSummary `json:"summary"`
	}{
		Loans: loans,
		Pagination: struct {
			Page       int `json:"page"`
			PageSize   int `json:"pageSize"`
			TotalCount int `json:"totalCount"`
			TotalPages int `json:"totalPages"`
		}{Page: p.Page, PageSize: p.PageSize, TotalCount: total, TotalPages: totalPages},
		Summary: sum,
	})
}

func (s *service) dashboard(r *http.Request) phttp.Response {
	userID := pnet.UserID(r.Context())

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	type activeLoanDTO struct {
		ID              string  `json:"id"`
		Title           string  `json:"title"`
		Status          string  `json:"status"`
		AmountRequested float64 `json:"amountRequested"`
		AmountFunded    float64 `json:"amountFunded"`
	}
	out := struct {
		TotalApplications   int             `json:"totalApplications"`
		PendingApplications int             `json:"pendingApplications"`
		ActiveLoans         []activeLoanDTO `json:"activeLoans"`
	}{ActiveLoans: []activeLoanDTO{}}

	for _, l := range s.store.myLoans(userID, listParams{}) {
		out.TotalApplications++
		switch l.Status {
		case statusPending:
			out.PendingApplications++
			out.ActiveLoans = append(out.ActiveLoans, activeLoanDTO{
				ID: l.ID, Title: l.Title, Status: l.Status,
				AmountRequested: l.AmountRequested, AmountFunded: l.AmountFunded,
			})
		case statusActive:
			out.ActiveLoans = append(out.ActiveLoans, activeLoanDTO{
				ID: l.ID, Title: l.Title, Status: l.Status,
				AmountRequested: l.AmountRequested, AmountFunded: l.AmountFunded,
			})
		}
	}
	return phttp.OK(out)
}

type createLoanRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description" validate:"required"`
	AmountRequested string `json:"amountRequested" validate:"required,numeric"`
	InterestRate    string `json:"interestRate" validate:"required,numeric"`
	Duration        string `json:"duration" validate:"required,number"`
	DurationUnit    string `json:"durationUnit" validate:"required,oneof=DAYS WEEKS MONTHS YEARS"`
}

func (s *service) createLoan(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[createLoanRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	amount, _ := strconv.ParseFloat(pstrings.CleanAmount(in.AmountRequested), 64)
	rate, _ := strconv.ParseFloat(pstrings.CleanAmount(in.InterestRate), 64)
	duration, _ := strconv.Atoi(in.Duration)
	if amount <= 0 {
		return phttp.Error(fieldError("amountRequested", "amountRequested must be greater than zero"))
	}
	if duration <= 0 {
		return phttp.Error(fieldError("duration", "duration must be greater than zero"))
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l := s.store.createLoan(pnet.UserID(r.Context()), &loan{
		Title:           in.Title,
		Description:     in.Description,
		AmountRequested: amount,
		InterestRate:    rate,
		Duration:        duration,
		DurationUnit:    in.DurationUnit,
	})
	return phttp.CreatedMsg("Loan request submitted", s.toLoanDTO(l, false))
}

type fundLoanRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (s *service) fundLoan(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[fundLoanRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, err := s.store.fundLoan(pnet.UserID(r.Context()), chi.URLParam(r, "id"), in.Amount)
	if err != nil {
		return phttp.Error(err)
	}
	return phttp.OKMsg("Funding request submitted", s.toLoanDTO(l, true))
}

type updateLoanRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (s *service) updateLoan(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[updateLoanRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, err := s.store.updateLoan(pnet.UserID(r.Context()), chi.URLParam(r, "id"), in.Title, in.Description)
	if err != nil {
		return phttp.Error(err)
	}
	return phttp.OKMsg("Loan updated", s.toLoanDTO(l, false))
}

// fieldError builds a validation error with a single field entry
func fieldError(field, msg string) error {
	return perr.WithFields(
		perr.New(perr.ErrorCodeValidation, "Validation errors in: "+pstrings.FormatFieldName(field)),
		map[string][]string{field: {msg}},
	)
}
