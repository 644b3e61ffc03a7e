package stubapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	perr "fundlink/internal/platform/errors"
	ptime "fundlink/internal/platform/time"
)

// Loan lifecycle statuses
const (
	statusPending = "PENDING"
	statusActive  = "ACTIVE"
	statusRepaid  = "REPAID"
)

type user struct {
	ID            string
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Role          string // BORROWER or LENDER
	VerifiedAt    *time.Time
	VerifyToken   string
	ResetToken    string
	WalletBalance float64
	CreatedAt     time.Time
}

func (u *user) verified() bool { return u.VerifiedAt != nil }

type funding struct {
	LenderID string
	Amount   float64
	Date     time.Time
}

type loan struct {
	ID              string
	Title           string
	Description     string
	AmountRequested float64
	AmountFunded    float64
	InterestRate    float64
	Duration        int
	DurationUnit    string
	Status          string
	BorrowerID      string
	Fundings        []funding
	PrincipalRepaid float64
	ActualEarnings  map[string]float64 // by lender id
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (l *loan) totalInterest() float64 {
	return l.AmountRequested * l.InterestRate / 100
}

type txn struct {
	ID          string
	UserID      string
	Amount      float64
	Type        string // DEPOSIT, WITHDRAWAL, LOAN_FUNDING, LOAN_DISBURSEMENT, REPAYMENT
	Description string
	ExternalRef string
	LoanID      string
	CreatedAt   time.Time
}

type bank struct {
	Name string
	Code string
}

// store is the in-memory backing state for the stub API
type store struct {
	mu    sync.Mutex
	users map[string]*user
	loans map[string]*loan
	txns  []*txn
	banks []bank

	now func() time.Time // seam for tests
}

func newStore() *store {
	s := &store{
		users: make(map[string]*user),
		loans: make(map[string]*loan),
		now:   time.Now,
		banks: []bank{
			{Name: "Access Bank", Code: "044"},
			{Name: "First Bank of Nigeria", Code: "011"},
			{Name: "Guaranty Trust Bank", Code: "058"},
			{Name: "United Bank for Africa", Code: "033"},
			{Name: "Zenith Bank", Code: "057"},
		},
	}
	s.seed()
	return s
}

// seed loads a small set of demo accounts and loans so the API is
// usable out of the box. Every demo password is "password123"
func (s *store) seed() {
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	lender := &user{
		ID:            uuid.NewString(),
		Email:         "lender@example.com",
		Password:      "password123",
		FirstName:     "Lara",
		LastName:      "Okafor",
		Role:          "LENDER",
		VerifiedAt:    ptime.Ptr(base),
		WalletBalance: 250000,
		CreatedAt:     base,
	}
	borrower := &user{
		ID:            uuid.NewString(),
		Email:         "borrower@example.com",
		Password:      "password123",
		FirstName:     "Bayo",
		LastName:      "Adeyemi",
		Role:          "BORROWER",
		VerifiedAt:    ptime.Ptr(base),
		WalletBalance: 10000,
		CreatedAt:     base,
	}
	s.users[lender.ID] = lender
	s.users[borrower.ID] = borrower

	titles := []struct {
		title  string
		desc   string
		amount float64
		rate   float64
	}{
		{"Tractor repair", "Fix the farm tractor before planting season", 80000, 12},
		{"Shop restock", "Restock provisions for the corner shop", 45000, 10},
		{"School fees", "Cover second semester tuition", 120000, 8},
		{"Poultry feed", "Bulk feed order for the poultry farm", 60000, 15},
		{"Sewing machine", "Industrial sewing machine for the tailoring shop", 95000, 11},
	}
	for i, t := range titles {
		created := base.Add(time.Duration(i) * 24 * time.Hour)
		l := &loan{
			ID:              uuid.NewString(),
			Title:           t.title,
			Description:     t.desc,
			AmountRequested: t.amount,
			InterestRate:    t.rate,
			Duration:        6,
			DurationUnit:    "MONTHS",
			Status:          statusPending,
			BorrowerID:      borrower.ID,
			ActualEarnings:  make(map[string]float64),
			CreatedAt:       created,
			UpdatedAt:       created,
		}
		s.loans[l.ID] = l
	}
}

func newToken() string { return uuid.NewString() }

func (s *store) findUserByEmail(email string) *user {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return u
		}
	}
	return nil
}

func (s *store) createUser(u *user) error {
	if s.findUserByEmail(u.Email) != nil {
		return perr.Conflictf("An account with this email already exists")
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now()
	u.VerifyToken = uuid.NewString()
	s.users[u.ID] = u
	return nil
}

func (s *store) createLoan(borrowerID string, l *loan) *loan {
	l.ID = uuid.NewString()
	l.BorrowerID = borrowerID
	l.Status = statusPending
	l.ActualEarnings = make(map[string]float64)
	l.CreatedAt = s.now()
	l.UpdatedAt = l.CreatedAt
	s.loans[l.ID] = l
	return l
}

// fundLoan moves amount from the lender wallet into the loan and
// records both sides of the ledger
func (s *store) fundLoan(lenderID, loanID string, amount float64) (*loan, error) {
	l, ok := s.loans[loanID]
	if !ok {
		return nil, perr.NotFoundf("Loan not found")
	}
	if l.Status != statusPending {
		return nil, perr.Conflictf("This loan is no longer open for funding")
	}
	if l.BorrowerID == lenderID {
		return nil, perr.Forbiddenf("You cannot fund your own loan")
	}
	lender := s.users[lenderID]
	if lender == nil {
		return nil, perr.Unauthorizedf("Unknown user")
	}
	remaining := l.AmountRequested - l.AmountFunded
	if amount > remaining {
		return nil, perr.Validationf("Amount exceeds the remaining %0.2f on this loan", remaining)
	}
	if lender.WalletBalance < amount {
		return nil, perr.Validationf("Insufficient wallet balance")
	}

	now := s.now()
	lender.WalletBalance -= amount
	l.AmountFunded += amount
	l.Fundings = append(l.Fundings, funding{LenderID: lenderID, Amount: amount, Date: now})
	l.UpdatedAt = now
	if l.AmountFunded >= l.AmountRequested {
		l.Status = statusActive
		borrower := s.users[l.BorrowerID]
		borrower.WalletBalance += l.AmountRequested
		s.txns = append(s.txns, &txn{
			ID:          uuid.NewString(),
			UserID:      borrower.ID,
			Amount:      l.AmountRequested,
			Type:        "LOAN_DISBURSEMENT",
			Description: "Disbursement for " + l.Title,
			LoanID:      l.ID,
			CreatedAt:   now,
		})
	}
	s.txns = append(s.txns, &txn{
		ID:          uuid.NewString(),
		UserID:      lenderID,
		Amount:      amount,
		Type:        "LOAN_FUNDING",
		Description: "Funding for " + l.Title,
		LoanID:      l.ID,
		CreatedAt:   now,
	})
	return l, nil
}

func (s *store) updateLoan(borrowerID, loanID, title, description string) (*loan, error) {
	l, ok := s.loans[loanID]
	if !ok {
		return nil, perr.NotFoundf("Loan not found")
	}
	if l.BorrowerID != borrowerID {
		return nil, perr.Forbiddenf("You can only edit your own loans")
	}
	if l.Status != statusPending {
		return nil, perr.Conflictf("Only pending loans can be edited")
	}
	l.Title = title
	l.Description = description
	l.UpdatedAt = s.now()
	return l, nil
}

func (s *store) addTxn(userID string, amount float64, typ, desc, ref string) *txn {
	t := &txn{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: desc,
		ExternalRef: ref,
		CreatedAt:   s.now(),
	}
	s.txns = append(s.txns, t)
	return t
}

// listParams mirrors the client's list query surface
type listParams struct {
	Page      int
	PageSize  int
	Search    string
	Status    string
	MinAmount *float64
	MaxAmount *float64
	SortBy    string
}

func (p listParams) matches(l *loan) bool {
	if p.Search != "" {
		q := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(l.Title), q) &&
			!strings.Contains(strings.ToLower(l.Description), q) {
			return false
		}
	}
	if p.Status != "" && !strings.EqualFold(p.Status, l.Status) {
		return false
	}
	if p.MinAmount != nil && l.AmountRequested < *p.MinAmount {
		return false
	}
	if p.MaxAmount != nil && l.AmountRequested > *p.MaxAmount {
		return false
	}
	return true
}

// sortLoans orders by "field_dir" keys like createdAt_desc
func sortLoans(loans []*loan, sortBy string) {
	field, dir := "createdAt", "desc"
	if sortBy != "" {
		if i := strings.LastIndex(sortBy, "_"); i > 0 {
			field, dir = sortBy[:i], sortBy[i+1:]
		} else {
			field = sortBy
		}
	}
	less := func(a, b *loan) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch field {
	case "amountRequested":
		less = func(a, b *loan) bool { return a.AmountRequested < b.AmountRequested }
	case "interestRate":
		less = func(a, b *loan) bool { return a.InterestRate < b.InterestRate }
	case "fundingDate":
		less = func(a, b *loan) bool { return lastFunding(a).Before(lastFunding(b)) }
	}
	sort.SliceStable(loans, func(i, j int) bool {
		if dir == "asc" {
			return less(loans[i], loans[j])
		}
		return less(loans[j], loans[i])
	})
}

func lastFunding(l *loan) time.Time {
	if n := len(l.Fundings); n > 0 {
		return l.Fundings[n-1].Date
	}
	return l.CreatedAt
}

// paginate slices items for the requested page and reports totals
func paginate[T any](items []T, page, pageSize int) ([]T, int, int) {
	total := len(items)
	if pageSize <= 0 {
		pageSize = 10
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start >= total {
		return []T{}, total, totalPages
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], total, totalPages
}

// openLoans returns pending loans not owned by userID, filtered and sorted
func (s *store) openLoans(userID string, p listParams) []*loan {
	out := make([]*loan, 0, len(s.loans))
	for _, l := range s.loans {
		if l.Status != statusPending || l.BorrowerID == userID {
			continue
		}
		if p.matches(l) {
			out = append(out, l)
		}
	}
	sortLoans(out, p.SortBy)
	return out
}

// myLoans returns loans borrowed by userID, filtered and sorted
func (s *store) myLoans(userID string, p listParams) []*loan {
	out := make([]*loan, 0, len(s.loans))
	for _, l := range s.loans {
		if l.BorrowerID != userID {
			continue
		}
		if p.matches(l) {
			out = append(out, l)
		}
	}
	sortLoans(out, p.SortBy)
	return out
}

// fundedLoans returns loans userID has funded, filtered and sorted
func (s *store) fundedLoans(userID string, p listParams) []*loan {
	out := make([]*loan, 0, len(s.loans))
	for _, l := range s.loans {
		if fundingAmount(l, userID) <= 0 {
			continue
		}
		if p.matches(l) {
			out = append(out, l)
		}
	}
	sortLoans(out, p.SortBy)
	return out
}

func fundingAmount(l *loan, userID string) float64 {
	var sum float64
	for _, f := range l.Fundings {
		if f.LenderID == userID {
			sum += f.Amount
		}
	}
	return sum
}

func (s *store) knownBank(code string) bool {
	for _, b := range s.banks {
		if b.Code == code {
			return true
		}
	}
	return false
}

// transactions returns userID's ledger entries, newest first
func (s *store) transactions(userID string) []*txn {
	out := make([]*txn, 0, len(s.txns))
	for _, t := range s.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	return out
}
