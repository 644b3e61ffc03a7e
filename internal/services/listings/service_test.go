package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	perr "fundlink/internal/platform/errors"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// stub captures requests and serves canned envelopes
type stub struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
}

func (s *stub) handler(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.RequestURI())
		if r.Body != nil && r.Method != http.MethodGet {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.bodies = append(s.bodies, body)
		}
		s.mu.Unlock()
		respond(w, r)
	}
}

func (s *stub) lastBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bodies) == 0 {
		return nil
	}
	return s.bodies[len(s.bodies)-1]
}

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
	st := &stub{}
	client := newClient(t, st.handler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "ok",
			"data": {
				"loans": [{"id": "loan-1", "title": "Tractor repair", "amountRequested": 50000, "status": "FUNDING",
					"borrower": {"id": "u-1", "firstName": "Ada", "lastName": "Obi"}}],
				"pagination": {"page": 2, "pageSize": 10, "totalItems": 31, "totalPages": 4}
			}
		}`))
	}))
	svc := New(client, nil, nil)

	d := querykit.ListQuery{Page: 2, PageSize: 10, Search: "tractor"}.Descriptor()
	res, err := svc.FetchPage(context.Background(), d)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if got := st.paths[0]; got != "/api/loans/open?page=2&pageSize=10&search=tractor" {
		t.Fatalf("request URI = %q", got)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Tractor repair" {
		t.Fatalf("items = %+v", res.Items)
	}
	if res.Items[0].Borrower.FirstName != "Ada" {
		t.Fatalf("borrower = %+v", res.Items[0].Borrower)
	}
	// totalItems on the wire, totalCount in the model
	if res.Page.TotalCount != 31 || res.Page.TotalPages != 4 {
		t.Fatalf("page = %+v", res.Page)
	}
}

func TestFundLoanCleansAmount(t *testing.T) {
	st := &stub{}
	client := newClient(t, st.handler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "funded", "data": {"id": "loan-7", "amountFunded": 50000}}`))
	}))
	svc := New(client, nil, nil)

	form := svc.FundForm()
	form.Set(FundPayload{Amount: "50,000"})
	m := svc.FundLoan("loan-7", form)

	loan, err := m.Do(context.Background(), form.Values())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if loan.ID != "loan-7" {
		t.Fatalf("loan = %+v", loan)
	}
	if st.paths[0] != "/api/loans/loan-7/fund" {
		t.Fatalf("path = %q", st.paths[0])
	}
	// the formatted string becomes a plain number on the wire
	if got := st.lastBody()["amount"]; got != float64(50000) {
		t.Fatalf("wire amount = %v", got)
	}
	// success resets the form
	if form.Values().Amount != "" {
		t.Fatalf("form not reset: %+v", form.Values())
	}
}

func TestFundLoanRejectsBadAmount(t *testing.T) {
	cases := []string{"", "abc", "-50", "0"}

	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	svc := New(client, nil, nil)

	for _, amount := range cases {
		form := svc.FundForm()
		form.Set(FundPayload{Amount: amount})
		m := svc.FundLoan("loan-1", form)

		_, err := m.Do(context.Background(), form.Values())
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("amount %q: err = %v, want validation", amount, err)
		}
		if got := form.FieldErrors()["amount"]; len(got) == 0 {
			t.Fatalf("amount %q: no field error on form", amount)
		}
	}
	if called {
		t.Fatal("invalid amount reached the network")
	}
}

func TestFundLoanValidatesFormBeforeParsing(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	svc := New(client, nil, nil)

	form := svc.FundForm()
	m := svc.FundLoan("loan-1", form)

	_, err := m.Do(context.Background(), form.Values())
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

func TestFundLoanInvalidatesFamilies(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "ok", "data": {"id": "loan-1"}}`))
	})

	reg := querykit.NewRegistry()
	counters := map[string]*famCounter{}
	for _, fam := range []string{Family, "user-loans", "dashboard", "wallet-transactions"} {
		c := &famCounter{}
		counters[fam] = c
		reg.Register(c, fam)
	}

	svc := New(client, reg, nil)
	form := svc.FundForm()
	form.Set(FundPayload{Amount: "100"})
	if _, err := svc.FundLoan("loan-1", form).Do(context.Background(), form.Values()); err != nil {
		t.Fatalf("Do: %v", err)
	}

	for _, fam := range []string{Family, "user-loans", "dashboard"} {
		if counters[fam].n != 1 {
			t.Fatalf("family %q invalidated %d times", fam, counters[fam].n)
		}
	}
	if counters["wallet-transactions"].n != 0 {
		t.Fatal("unrelated family invalidated")
	}
}

type famCounter struct{ n int }

func (f *famCounter) Invalidate() { f.n++ }
