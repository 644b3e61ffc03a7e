// Command fundlink-cli logs into the lending API and prints a page of the
// loan marketplace. Mostly a smoke tool for the SDK against a running API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"fundlink/internal/core/version"
	"fundlink/internal/platform/config"
	"fundlink/internal/platform/logger"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
	authsvc "fundlink/internal/services/auth"
	"fundlink/internal/services/listings"
	"fundlink/internal/session"
)

func main() {
	root := config.New().Prefix("FUNDLINK_")
	l := logger.Get()

	var (
		apiURL   = flag.String("api", root.MayString("API_URL", "http://localhost:4000"), "API base URL")
		email    = flag.String("email", root.MayString("EMAIL", ""), "account email")
		password = flag.String("password", root.MayString("PASSWORD", ""), "account password")
		search   = flag.String("search", "", "search term")
		status   = flag.String("status", "", "status filter (PENDING, ACTIVE, REPAID)")
		pageSize = flag.Int("page-size", 10, "loans per page")
		showVer  = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *showVer {
		b := version.Info()
		fmt.Printf("%s %s (%s, %s)\n", b.Service, b.Version, b.Commit, b.Date)
		return
	}
	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or FUNDLINK_EMAIL / FUNDLINK_PASSWORD)")
	}

	sess := session.NewMemory()
	api, err := rest.New(rest.Config{BaseURL: *apiURL, Tokens: sess, Log: l})
	if err != nil {
		l.Panic().Err(err).Msg("bad API URL")
	}

	auth := authsvc.New(api, sess, nil)
	form := querykit.NewForm(authsvc.LoginPayload{})
	form.Set(authsvc.LoginPayload{Email: *email, Password: *password})
	user, err := auth.Login(form).Do(context.Background(), form.Values())
	if err != nil {
		l.Fatal().Err(err).Msg("login failed")
	}
	l.Info().Str("user", user.Email).Str("role", user.Role).Msg("logged in")

	svc := listings.New(api, querykit.NewRegistry(), nil)
	ctrl := svc.Controller()
	defer ctrl.Close()
	ctrl.Start(context.Background())

	ctrl.SetPageSize(*pageSize)
	if *status != "" {
		ctrl.SetStatusFilter(*status)
	}
	if *search != "" {
		ctrl.SetSearchQuery(*search)
	}

	// search and status apply after the controller's debounce window
	if *search != "" || *status != "" {
		time.Sleep(400 * time.Millisecond)
	}

	deadline := time.Now().Add(15 * time.Second)
	for ctrl.IsFetching() || ctrl.IsLoading() {
		if time.Now().After(deadline) {
			l.Fatal().Msg("timed out loading listings")
		}
		time.Sleep(25 * time.Millisecond)
	}
	if err := ctrl.Err(); err != nil {
		l.Fatal().Err(err).Msg("loading listings failed")
	}

	page := ctrl.Pagination()
	fmt.Printf("open loans, page %d of %d (%d total)\n\n", page.Page, page.TotalPages, page.TotalCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tREQUESTED\tFUNDED\tRATE\tSTATUS\tBORROWER")
	for _, loan := range ctrl.Items() {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.1f%%\t%s\t%s %s\n",
			loan.Title, loan.AmountRequested, loan.AmountFunded,
			loan.InterestRate, loan.Status,
			loan.Borrower.FirstName, loan.Borrower.LastName)
	}
	_ = w.Flush()
}
