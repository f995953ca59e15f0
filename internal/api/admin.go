package api

import (
	"context"
	"fmt"
	"net/http"
)

// AdminUsers lists every account. Staff only.
func (s *Service) AdminUsers(ctx context.Context) ([]User, error) {
	return fetchList[User](ctx, s.t, "/admin/users/", RecipeQuery{})
}

// AdminUser fetches one account.
func (s *Service) AdminUser(ctx context.Context, id int64) (User, error) {
	var u User
	if err := s.t.Send(ctx, http.MethodGet, adminUserPath(id), nil, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateAdminUser changes staff or active flags on an account.
func (s *Service) UpdateAdminUser(ctx context.Context, id int64, update AdminUserUpdate) (User, error) {
	var u User
	if err := s.t.Send(ctx, http.MethodPatch, adminUserPath(id), update, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// AdminRecipes lists recipes for moderation.
func (s *Service) AdminRecipes(ctx context.Context, q RecipeQuery) ([]Recipe, error) {
	return fetchList[Recipe](ctx, s.t, "/admin/recipes/", q)
}

// UpdateAdminRecipe edits any recipe regardless of owner.
func (s *Service) UpdateAdminRecipe(ctx context.Context, id int64, in RecipeInput) (Recipe, error) {
	var r Recipe
	if err := s.t.Send(ctx, http.MethodPatch, adminRecipePath(id), in, nil, &r); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// DeleteAdminRecipe removes any recipe regardless of owner.
func (s *Service) DeleteAdminRecipe(ctx context.Context, id int64) error {
	return s.t.Send(ctx, http.MethodDelete, adminRecipePath(id), nil, nil, nil)
}

func adminUserPath(id int64) string {
	return fmt.Sprintf("/admin/users/%d/", id)
}

func adminRecipePath(id int64) string {
	return fmt.Sprintf("/admin/recipes/%d/", id)
}
