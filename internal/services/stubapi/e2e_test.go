package stubapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"fundlink/internal/platform/config"
	perr "fundlink/internal/platform/errors"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
	"fundlink/internal/services/auth"
	"fundlink/internal/services/listings"
	"fundlink/internal/services/stubapi"
	"fundlink/internal/services/wallet"
	"fundlink/internal/session"
)

// the full client stack wired against the stub, the way an app would do it
type clientStack struct {
	session  *session.Memory
	registry *querykit.Registry
	auth     *auth.Service
	listings *listings.Service
	wallet   *wallet.Service
}

func newStack(t *testing.T) *clientStack {
	t.Helper()

	r := phttp.AdaptChi(chi.NewRouter())
	stubapi.Mount(r, stubapi.Options{Config: config.New()})
	srv := httptest.NewServer(r.Mux())
	t.Cleanup(srv.Close)

	sess := session.NewMemory()
	api, err := rest.New(rest.Config{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Tokens:     sess,
	})
	if err != nil {
		t.Fatalf("rest.New: %v", err)
	}
	registry := querykit.NewRegistry()
	return &clientStack{
		session:  sess,
		registry: registry,
		auth:     auth.New(api, sess, nil),
		listings: listings.New(api, registry, nil),
		wallet:   wallet.New(api, registry, nil),
	}
}

func login(t *testing.T, stack *clientStack, email, password string) {
	t.Helper()
	form := querykit.NewForm(auth.LoginPayload{})
	form.Set(auth.LoginPayload{Email: email, Password: password})
	if _, err := stack.auth.Login(form).Do(context.Background(), form.Values()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !stack.session.Authenticated() {
		t.Fatalf("expected session after login")
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestEndToEndBrowseAndSearch(t *testing.T) {
	stack := newStack(t)
	login(t, stack, "lender@example.com", "password123")

	ctrl := stack.listings.Controller()
	defer ctrl.Close()
	ctrl.Start(context.Background())

	waitFor(t, func() bool { return len(ctrl.Items()) == 5 }, "initial listings page")
	if ctrl.Pagination().TotalCount != 5 {
		t.Fatalf("total count: %d", ctrl.Pagination().TotalCount)
	}

	ctrl.SetSearchQuery("tractor")
	waitFor(t, func() bool {
		items := ctrl.Items()
		return len(items) == 1 && items[0].Title == "Tractor repair"
	}, "search narrowed to tractor loan")
	if ctrl.State().Search != "tractor" {
		t.Fatalf("raw search state: %q", ctrl.State().Search)
	}
}

func TestEndToEndFundingInvalidatesListings(t *testing.T) {
	stack := newStack(t)
	login(t, stack, "lender@example.com", "password123")

	ctrl := stack.listings.Controller()
	defer ctrl.Close()
	ctrl.Start(context.Background())
	waitFor(t, func() bool { return len(ctrl.Items()) == 5 }, "initial listings page")

	var target listings.Loan
	for _, l := range ctrl.Items() {
		if l.Title == "Shop restock" {
			target = l
		}
	}
	if target.ID == "" {
		t.Fatalf("seeded loan missing from listings")
	}

	form := stack.listings.FundForm()
	form.Set(listings.FundPayload{Amount: "20,000"})
	funded, err := stack.listings.FundLoan(target.ID, form).Do(context.Background(), form.Values())
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if funded.AmountFunded != 20000 {
		t.Fatalf("funded amount: %v", funded.AmountFunded)
	}

	// the mutation invalidates the listings family, so the controller
	// refetches and shows the new funding level without manual refresh
	waitFor(t, func() bool {
		for _, l := range ctrl.Items() {
			if l.ID == target.ID && l.AmountFunded == 20000 {
				return true
			}
		}
		return false
	}, "listings to reflect the funding")
}

func TestEndToEndServerFieldErrorsLandOnForm(t *testing.T) {
	stack := newStack(t)
	login(t, stack, "lender@example.com", "password123")

	form := stack.wallet.WithdrawForm()
	form.Set(wallet.WithdrawPayload{
		Amount:        "100",
		BankCode:      "999", // not a known bank
		AccountNumber: "0123456789",
	})
	_, err := stack.wallet.Withdraw(form).Do(context.Background(), form.Values())
	if err == nil {
		t.Fatalf("expected withdraw rejection")
	}
	if perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("code: %v", perr.CodeOf(err))
	}
	if msgs := form.FieldErrors()["bankCode"]; len(msgs) == 0 {
		t.Fatalf("expected bankCode error on form, got %v", form.FieldErrors())
	}
	n := perr.Normalize(err)
	if n.Message == "" || n.Message == perr.FallbackMessage {
		t.Fatalf("expected a display message, got %q", n.Message)
	}
}

func TestEndToEndUnauthorizedClearsSession(t *testing.T) {
	stack := newStack(t)
	login(t, stack, "lender@example.com", "password123")

	var loggedOut bool
	stack.session.OnUnauthorized(func() { loggedOut = true })

	// expire the session token behind the client's back
	stack.session.Set("not-a-valid-token", time.Now().Add(time.Hour))

	_, err := stack.listings.FetchPage(context.Background(), querykit.DefaultListQuery().Descriptor())
	if perr.CodeOf(err) != perr.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !loggedOut {
		t.Fatalf("expected unauthorized hook to fire")
	}
	if stack.session.Authenticated() {
		t.Fatalf("expected session cleared")
	}
}
