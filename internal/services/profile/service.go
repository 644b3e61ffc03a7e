// Package profile reads and edits the signed-in user's account details
package profile

import (
	"context"

	"fundlink/internal/querykit"
	"fundlink/internal/rest"
)

// Family is the query family invalidated when the profile changes
const Family = "profile"

// Profile is the account as the profile endpoint returns it
type Profile struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	CreatedAt       string `json:"createdAt"`
}

// UpdatePayload edits the name fields; email and role are immutable here
type UpdatePayload struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// Service exposes the profile query and its edit mutation
type Service struct {
	api      *rest.Client
	registry *querykit.Registry
	notifier querykit.Notifier
}

// New builds the profile service
func New(api *rest.Client, registry *querykit.Registry, notifier querykit.Notifier) *Service {
	if notifier == nil {
		notifier = querykit.NopNotifier{}
	}
	return &Service{api: api, registry: registry, notifier: notifier}
}

// Fetch loads the profile; the descriptor is fixed, there is one profile
func (s *Service) Fetch(ctx context.Context, _ querykit.Descriptor) (Profile, error) {
	var p Profile
	err := s.api.Get(ctx, "/api/user/profile", nil, &p)
	return p, err
}

// Query builds the profile query under the profile family
func (s *Service) Query() *querykit.Query[Profile] {
	q := querykit.NewQuery(s.Fetch, querykit.QueryConfig{Notifier: s.notifier})
	if s.registry != nil {
		s.registry.Register(q, Family)
	}
	return q
}

// Load starts (or revalidates) the profile query
func (s *Service) Load(ctx context.Context, q *querykit.Query[Profile]) {
	q.Load(ctx, querykit.Static(Family))
}

// UpdateForm returns an edit form pre-filled from the current profile
func (s *Service) UpdateForm(p Profile) *querykit.Form[UpdatePayload] {
	return querykit.NewForm(UpdatePayload{FirstName: p.FirstName, LastName: p.LastName})
}

// Update builds the edit mutation; success refreshes the profile query
func (s *Service) Update(form *querykit.Form[UpdatePayload]) *querykit.Mutation[UpdatePayload, Profile] {
	return querykit.NewMutation(func(ctx context.Context, in UpdatePayload) (Profile, error) {
		var p Profile
		if err := form.Validate(); err != nil {
			return p, err
		}
		if err := s.api.Patch(ctx, "/api/user/profile", in, &p); err != nil {
			return p, err
		}
		return p, nil
	}, querykit.MutationConfig{
		Registry:       s.registry,
		Invalidates:    []string{Family},
		Form:           form,
		Notifier:       s.notifier,
		SuccessMessage: "Profile updated",
	})
}
