package stubapi

import (
	"net/http"
	"time"

	perr "fundlink/internal/platform/errors"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/platform/net/http/bind"
)

type userDTO struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	CreatedAt       string `json:"createdAt"`
}

func toUserDTO(u *user) userDTO {
	return userDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsEmailVerified: u.verified(),
		CreatedAt:       u.CreatedAt.Format(time.RFC3339),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenDTO struct {
	Value     string `json:"value"`
	ExpiresAt string `json:"expiresAt"`
}

type loginData struct {
	Token tokenDTO `json:"token"`
	User  userDTO  `json:"user"`
}

func (s *service) login(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[loginRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	u := s.store.findUserByEmail(in.Email)
	if u == nil || u.Password != in.Password {
		return phttp.Error(perr.Unauthorizedf("Invalid email or password"))
	}
	if !u.verified() {
		return phttp.Error(perr.Forbiddenf("Please verify your email address before logging in"))
	}

	value, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		return phttp.Error(err)
	}
	return phttp.OKMsg("Login successful", loginData{
		Token: tokenDTO{Value: value, ExpiresAt: expires.Format(time.RFC3339)},
		User:  toUserDTO(u),
	})
}

type signupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=BORROWER LENDER"`
}

func (s *service) signup(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[signupRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	u := &user{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
	}
	if err := s.store.createUser(u); err != nil {
		return phttp.Error(err)
	}
	s.log.Info().Str("email", u.Email).Str("verify_token", u.VerifyToken).
		Msg("signup complete, verification pending")
	return phttp.CreatedMsg("Account created, check your email to verify it", toUserDTO(u))
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s *service) verifyEmail(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[verifyRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, u := range s.store.users {
		if u.VerifyToken != "" && u.VerifyToken == in.Token {
			now := s.store.now()
			u.VerifiedAt = &now
			u.VerifyToken = ""
			return phttp.OKMsg("Email verified", toUserDTO(u))
		}
	}
	return phttp.Error(perr.NotFoundf("Invalid or expired verification token"))
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *service) resendVerification(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[emailRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	// respond identically whether or not the account exists
	if u := s.store.findUserByEmail(in.Email); u != nil && !u.verified() {
		if u.VerifyToken == "" {
			u.VerifyToken = newToken()
		}
		s.log.Info().Str("email", u.Email).Str("verify_token", u.VerifyToken).
			Msg("verification resent")
	}
	return phttp.OKMsg("If the account exists, a verification email has been sent", nil)
}

func (s *service) forgotPassword(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[emailRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if u := s.store.findUserByEmail(in.Email); u != nil {
		u.ResetToken = newToken()
		s.log.Info().Str("email", u.Email).Str("reset_token", u.ResetToken).
			Msg("password reset requested")
	}
	return phttp.OKMsg("If the account exists, a reset email has been sent", nil)
}

type resetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (s *service) resetPassword(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[resetRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, u := range s.store.users {
		if u.ResetToken != "" && u.ResetToken == in.Token {
			u.Password = in.NewPassword
			u.ResetToken = ""
			return phttp.OKMsg("Password updated, you can now log in", nil)
		}
	}
	return phttp.Error(perr.NotFoundf("Invalid or expired reset token"))
}
