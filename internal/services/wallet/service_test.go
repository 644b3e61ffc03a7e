package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "fundlink/internal/platform/errors"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

func newClient(t *testing.T, h http.HandlerFunc) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := rest.New(rest.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("rest.New: %v", err)
	}
	return c
}

func TestFetchPage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/transactions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "ok",
			"data": {
				"transactions": [
					{"id": "tx-1", "amount": 50000, "type": "DEPOSIT", "createdAt": "2026-03-01T10:00:00Z"},
					{"id": "tx-2", "amount": 15000, "type": "LOAN_FUNDING", "loanId": "loan-7", "loan": {"title": "Tractor repair"}, "createdAt": "2026-03-02T09:00:00Z"}
				],
				"page": 1, "pageSize": 10, "totalCount": 2, "totalPages": 1
			}
		}`))
	})
	svc := New(client, nil, nil)

	res, err := svc.FetchPage(context.Background(), querykit.DefaultListQuery().Descriptor())
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %+v", res.Items)
	}
	tx := res.Items[1]
	if tx.Loan == nil || tx.Loan.Title != "Tractor repair" {
		t.Fatalf("loan ref = %+v", tx.Loan)
	}
	if res.Items[0].Loan != nil || res.Items[0].Description != nil {
		t.Fatalf("optional fields populated: %+v", res.Items[0])
	}
}

func TestBanksAndResolveAccount(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/paystack/banks":
			_, _ = w.Write([]byte(`{"success": true, "message": "ok", "data": [{"name": "First Bank", "code": "011"}, {"name": "GTBank", "code": "058"}]}`))
		case "/api/paystack/resolve-account":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["bankCode"] != "058" || req["accountNumber"] != "0123456789" {
				t.Errorf("resolve body = %v", req)
			}
			_, _ = w.Write([]byte(`{"success": true, "message": "ok", "data": {"accountName": "ADA OBI", "accountNumber": "0123456789"}}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})
	svc := New(client, nil, nil)

	banks, err := svc.Banks(context.Background())
	if err != nil {
		t.Fatalf("Banks: %v", err)
	}
	if len(banks) != 2 || banks[1].Code != "058" {
		t.Fatalf("banks = %+v", banks)
	}

	acct, err := svc.ResolveAccount(context.Background(), "058", "0123456789")
	if err != nil {
		t.Fatalf("ResolveAccount: %v", err)
	}
	if acct.AccountName != "ADA OBI" {
		t.Fatalf("account = %+v", acct)
	}
}

func TestFundWalletCleansAmount(t *testing.T) {
	var gotBody map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "funded"}`))
	})

	reg := querykit.NewRegistry()
	ledger := &famCounter{}
	dashboard := &famCounter{}
	reg.Register(ledger, Family)
	reg.Register(dashboard, "dashboard")

	svc := New(client, reg, nil)
	form := querykit.NewForm(FundPayload{})
	form.Set(FundPayload{Amount: "1,250.50"})

	if _, err := svc.FundWallet(form).Do(context.Background(), form.Values()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotBody["amount"] != 1250.50 {
		t.Fatalf("wire amount = %v", gotBody["amount"])
	}
	if ledger.n != 1 || dashboard.n != 1 {
		t.Fatalf("invalidations = %d/%d", ledger.n, dashboard.n)
	}
	if form.Values().Amount != "" {
		t.Fatal("form not reset")
	}
}

func TestFundWalletValidatesFormBeforeParsing(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	svc := New(client, nil, nil)

	form := svc.FundForm()
	_, err := svc.FundWallet(form).Do(context.Background(), form.Values())
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	// the required tag speaks, not the amount parser
	msgs := form.FieldErrors()["amount"]
	if len(msgs) == 0 || !strings.Contains(msgs[0], "required") {
		t.Fatalf("field errors = %v, want required-field message", form.FieldErrors())
	}
	if called {
		t.Fatal("empty form reached the network")
	}
}

func TestWithdrawValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload WithdrawPayload
		field   string
	}{
		{"missing bank", WithdrawPayload{Amount: "100", AccountNumber: "0123456789"}, "bankCode"},
		{"short account", WithdrawPayload{Amount: "100", BankCode: "058", AccountNumber: "123"}, "accountNumber"},
		{"alpha account", WithdrawPayload{Amount: "100", BankCode: "058", AccountNumber: "12345abcde"}, "accountNumber"},
	}

	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	svc := New(client, nil, nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := querykit.NewForm(WithdrawPayload{})
			form.Set(tc.payload)

			_, err := svc.Withdraw(form).Do(context.Background(), form.Values())
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if len(form.FieldErrors()[tc.field]) == 0 {
				t.Fatalf("no error for %q: %v", tc.field, form.FieldErrors())
			}
		})
	}
	if called {
		t.Fatal("invalid withdrawal reached the network")
	}
}

func TestWithdrawSubmits(t *testing.T) {
	var gotBody map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/wallet/withdraw" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "queued"}`))
	})
	svc := New(client, nil, nil)

	form := querykit.NewForm(WithdrawPayload{})
	form.Set(WithdrawPayload{Amount: "25,000", BankCode: "058", AccountNumber: "0123456789"})

	if _, err := svc.Withdraw(form).Do(context.Background(), form.Values()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotBody["amount"] != float64(25000) || gotBody["bankCode"] != "058" {
		t.Fatalf("wire body = %v", gotBody)
	}
}

type famCounter struct{ n int }

func (f *famCounter) Invalidate() { f.n++ }
