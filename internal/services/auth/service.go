// Package auth drives the account lifecycle over the unauthenticated
// client: login, signup, verification and password recovery. A successful
// login lands the token in the session every authenticated call reads
package auth

import (
	"context"
	"strings"
	"time"

	perr "fundlink/internal/platform/errors"
	"fundlink/internal/querykit"
	"fundlink/internal/rest"
	"fundlink/internal/session"
)

// User is the account as the auth endpoints return it
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	Role            string `json:"role"` // LENDER or BORROWER
}

// LoginPayload is the login form
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupPayload is the registration form
type SignupPayload struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=BORROWER LENDER"`
}

// ForgotPasswordPayload requests a reset email
type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordPayload completes a reset with the emailed token
type ResetPasswordPayload struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// loginData is the wire shape of a successful login
type loginData struct {
	Token struct {
		Value     string `json:"value"`
		ExpiresAt string `json:"expiresAt"`
	} `json:"token"`
	User User `json:"user"`
}

// Service performs the auth flows. api must be the unauthenticated client
// so a dead token can never block logging back in
type Service struct {
	api      *rest.Client
	session  *session.Memory
	notifier querykit.Notifier
}

// New builds the auth service around the unauthenticated client
func New(api *rest.Client, sess *session.Memory, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, session: sess, notifier: notifier}
}

// Login authenticates and stores the token in the session. The returned
// user lets callers route by role; IsEmailNotVerified distinguishes the
// unverified-account rejection from bad credentials
func (s *Service) Login(form *querykit.Form[LoginPayload]) *querykit.Mutation[LoginPayload, User] {
	return querykit.NewMutation(func(ctx context.Context, in LoginPayload) (User, error) {
		if err := form.Validate(); err != nil {
			return User{}, err
		}
		var data loginData
		if err := s.api.Post(ctx, "/api/auth/login", in, &data); err != nil {
			return User{}, err
		}
		expiresAt, _ := time.Parse(time.RFC3339, data.Token.ExpiresAt)
		s.session.Set(data.Token.Value, expiresAt)
		return data.User, nil
	}, querykit.MutationConfig{Form: form, Notifier: s.notifier})
}

// Logout clears the session; purely local, the API keeps no server state
func (s *Service) Logout() {
	s.session.Clear()
}

// Signup registers a new account; the user still has to verify their email
// before logging in
func (s *Service) Signup(form *querykit.Form[SignupPayload]) *querykit.Mutation[SignupPayload, User] {
	return querykit.NewMutation(func(ctx context.Context, in SignupPayload) (User, error) {
		if err := form.Validate(); err != nil {
			return User{}, err
		}
		var user User
		if err := s.api.Post(ctx, "/api/auth/signup", in, &user); err != nil {
			return User{}, err
		}
		return user, nil
	}, querykit.MutationConfig{
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Account created, check your email to verify it",
	})
}

// ResendVerification sends a fresh verification email
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	return s.api.Post(ctx, "/api/auth/resend-verification", resendRequest{Email: email}, nil)
}

// VerifyEmail redeems the token from the verification email
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return perr.InvalidArgf("verification token is required")
	}
	return s.api.Post(ctx, "/api/auth/verify-email", verifyRequest{Token: token}, nil)
}

// ForgotPassword requests a password reset email
func (s *Service) ForgotPassword(form *querykit.Form[ForgotPasswordPayload]) *querykit.Mutation[ForgotPasswordPayload, struct{}] {
	return querykit.NewMutation(func(ctx context.Context, in ForgotPasswordPayload) (struct{}, error) {
		if err := form.Validate(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.api.Post(ctx, "/api/auth/forgot-password", in, nil)
	}, querykit.MutationConfig{
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Reset instructions sent",
	})
}

// ResetPassword completes the reset flow
func (s *Service) ResetPassword(form *querykit.Form[ResetPasswordPayload]) *querykit.Mutation[ResetPasswordPayload, struct{}] {
	return querykit.NewMutation(func(ctx context.Context, in ResetPasswordPayload) (struct{}, error) {
		if err := form.Validate(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.api.Post(ctx, "/api/auth/reset-password", in, nil)
	}, querykit.MutationConfig{
		Form:           form,
		ResetOnSuccess: true,
		Notifier:       s.notifier,
		SuccessMessage: "Password updated, log in with the new one",
	})
}

// IsEmailNotVerified reports whether a login failure is the
// unverified-account rejection rather than bad credentials. The backend
// signals it only through the message text
func IsEmailNotVerified(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(perr.Normalize(err).Message)
	return strings.Contains(msg, "verify your email") ||
		strings.Contains(msg, "email not verified")
}
