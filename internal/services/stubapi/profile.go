package stubapi

import (
	"net/http"

	perr "fundlink/internal/platform/errors"
	pnet "fundlink/internal/platform/net"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/platform/net/http/bind"
)

func (s *service) profile(r *http.Request) phttp.Response {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	u := s.store.users[pnet.UserID(r.Context())]
	if u == nil {
		return phttp.Error(perr.Unauthorizedf("Unknown user"))
	}
	return phttp.OK(toUserDTO(u))
}

type updateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

func (s *service) updateProfile(r *http.Request) phttp.Response {
	in, err := bind.ParseJSON[updateProfileRequest](r)
	if err != nil {
		return phttp.Error(err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	u := s.store.users[pnet.UserID(r.Context())]
	if u == nil {
		return phttp.Error(perr.Unauthorizedf("Unknown user"))
	}
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	return phttp.OKMsg("Profile updated", toUserDTO(u))
}
