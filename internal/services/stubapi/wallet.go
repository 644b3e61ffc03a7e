package stubapi

import (
	"net/http"
	"strings"
	"time"

	perr "fundlink/internal/platform/errors"
	pnet "fundlink/internal/platform/net"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/platform/net/http/bind"
)

type txnDTO struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Amount      float64  `json:"amount"`
	Type        string   `json:"type"`
	Description *string  `json:"description,omitempty"`
	ExternalRef *string  `json:"externalRef,omitempty"`
	LoanID      *string  `json:"loanId,omitempty"`
	Loan        *loanRef `json:"loan,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

type loanRef struct {
	Title string `json:"title,omitempty"`
}

func (s *service) toTxnDTO(t *txn) txnDTO {
	d := txnDTO{
		ID:        t.ID,
		UserID:    t.UserID,
		Amount:    t.Amount,
		Type:      t.Type,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.Description != "" {
		d.Description = &t.Description
	}
	if t.ExternalRef != "" {
		d.ExternalRef = &t.ExternalRef
	}
	if t.LoanID != "" {
		d.LoanID = &t.LoanID
		if l := s.store.loans[t.LoanID]; l != nil {
			d.Loan = &loanRef{Title: l.Title}
		}
	}
	return d
}

func (s *service) transactions(r *http.Request) phttp.Response {
	p := parseListParams(r)
	userID := pnet.UserID(r.Context())

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	all := s.store.transactions(userID)
	pageItems, total, totalPages := paginate(all, p.Page, p.PageSize)

	txns := make([]txnDTO, 0, len(pageItems))
	for _, t := range pageItems {
		txns = append(txns, s.toTxnDTO(t))
	}
	return phttp.OK(struct {
		Transactions []txnDTO `json:"transactions"`
		Page         int      `json:"page"`
		PageSize     int      `json:"pageSize"`
		TotalCount   int      `json:"totalCount"`
		TotalPages   int      `json:"totalPages"`
	}{
		Transactions: txns,
		Page:         p.Page, PageSize: p.PageSize,
		TotalCount: total, TotalPages: totalPages,
	})
}

type fundWalletRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (s *service) fundWallet(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[fundWalletRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	userID := pnet.UserID(r.Context())
	u := s.store.users[userID]
	if u == nil {
		return phttp.Error(perr.Unauthorizedf("Unknown user"))
	}
	u.WalletBalance += in.Amount
	t := s.store.addTxn(userID, in.Amount, "DEPOSIT", "Wallet top-up", "PSK-"+newToken()[:8])
	return phttp.OKMsg("Wallet funded", s.toTxnDTO(t))
}

type withdrawRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	BankCode      string  `json:"bankCode" validate:"required"`
	AccountNumber string  `json:"accountNumber" validate:"required,numeric,min=6,max=12"`
}

func (s *service) withdraw(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[withdrawRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	userID := pnet.UserID(r.Context())
	u := s.store.users[userID]
	if u == nil {
		return phttp.Error(perr.Unauthorizedf("Unknown user"))
	}
	if !s.store.knownBank(in.BankCode) {
		return phttp.Error(fieldError("bankCode", "bankCode is not a recognized bank"))
	}
	if u.WalletBalance < in.Amount {
		return phttp.Error(perr.Validationf("Insufficient wallet balance"))
	}
	u.WalletBalance -= in.Amount
	t := s.store.addTxn(userID, in.Amount, "WITHDRAWAL",
		"Withdrawal to account "+in.AccountNumber, "PSK-"+newToken()[:8])
	return phttp.OKMsg("Withdrawal requested", s.toTxnDTO(t))
}

func (s *service) banks(_ *http.Request) phttp.Response {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	type bankDTO struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	out := make([]bankDTO, 0, len(s.store.banks))
	for _, b := range s.store.banks {
		out = append(out, bankDTO{Name: b.Name, Code: b.Code})
	}
	return phttp.OK(out)
}

type resolveRequest struct {
	BankCode      string `json:"bankCode" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,min=6,max=12"`
}

// resolveAccount fakes the paystack account lookup with a deterministic name
func (s *service) resolveAccount(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[resolveRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if !s.store.knownBank(in.BankCode) {
		return phttp.Error(perr.NotFoundf("Could not resolve account"))
	}
	name := "ACCOUNT " + strings.ToUpper(in.AccountNumber[len(in.AccountNumber)-4:])
	return phttp.OK(struct {
		AccountName   string `json:"accountName"`
		AccountNumber string `json:"accountNumber"`
	}{AccountName: name, AccountNumber: in.AccountNumber})
}
