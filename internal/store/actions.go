package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/httpclient"
)

// ErrSuperseded marks a failure from a fetch that a newer request or a local
// write already replaced. Such failures are returned but not recorded.
var ErrSuperseded = errors.New("superseded by a newer request")

// SessionExpiredMessage is recorded when a token refresh fails.
const SessionExpiredMessage = "Session expired, please sign in again"

// run wraps one network action with busy tracking and error recording.
func (s *Store) run(ctx context.Context, r Resource, fallback string, fn func(context.Context) error) error {
	done := s.track(r)
	defer done()

	s.Commit(ClearError{})
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
		return err
	}
	msg := httpclient.Message(err, fallback)
	if errors.Is(err, httpclient.ErrSessionExpired) {
		msg = SessionExpiredMessage
	}
	s.Commit(SetError{Message: msg})
	s.log.Debug("action failed", zap.String("resource", string(r)), zap.String("message", msg), zap.Error(err))
	return err
}

// fetch runs load under a fresh epoch for r and commits its mutation only if
// that epoch is still current.
func (s *Store) fetch(ctx context.Context, r Resource, fallback string, load func(context.Context) (Mutation, error)) error {
	return s.run(ctx, r, fallback, func(ctx context.Context) error {
		epoch := s.begin(r)
		m, err := load(ctx)
		if err != nil {
			if !s.isCurrent(r, epoch) {
				return fmt.Errorf("%w: %w", ErrSuperseded, err)
			}
			return err
		}
		s.commitIfCurrent(r, epoch, m)
		return nil
	})
}

// HandleSessionExpired drops the signed-in view after the client gave up on
// refreshing. Fetches still in flight are discarded.
func (s *Store) HandleSessionExpired() {
	s.commitSuperseding(Logout{}, allResources...)
	s.Commit(SetError{Message: SessionExpiredMessage})
	s.log.Info("session expired")
}

// Login signs in and loads the returned profile.
func (s *Store) Login(ctx context.Context, creds api.Credentials) (api.LoginResponse, error) {
	var resp api.LoginResponse
	err := s.run(ctx, ResourceSession, "Login failed", func(ctx context.Context) error {
		var err error
		resp, err = s.backend.Login(ctx, creds)
		if err != nil {
			return err
		}
		user := resp.User
		s.commitSuperseding(SetUser{User: &user}, ResourceSession, ResourceProfile)
		s.Commit(SetAuthenticated{Value: true})
		return nil
	})
	return resp, err
}

// Register creates an account. The caller signs in separately.
func (s *Store) Register(ctx context.Context, reg api.Registration) (api.User, error) {
	var user api.User
	err := s.run(ctx, ResourceSession, "Registration failed", func(ctx context.Context) error {
		var err error
		user, err = s.backend.Register(ctx, reg)
		return err
	})
	return user, err
}

// Logout clears the session locally and on the server. Server failures are
// ignored; the local state is always dropped.
func (s *Store) Logout(ctx context.Context) error {
	done := s.track(ResourceSession)
	defer done()

	s.Commit(ClearError{})
	err := s.backend.Logout(ctx)
	if err != nil {
		s.log.Warn("clear stored session", zap.Error(err))
	}
	s.commitSuperseding(Logout{}, allResources...)
	return err
}

// FetchProfile reloads the signed-in user's profile.
func (s *Store) FetchProfile(ctx context.Context) error {
	return s.fetch(ctx, ResourceProfile, "Failed to fetch profile", func(ctx context.Context) (Mutation, error) {
		u, err := s.backend.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return SetUser{User: &u}, nil
	})
}

// UpdateProfile saves profile changes.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) (api.User, error) {
	var user api.User
	err := s.run(ctx, ResourceProfile, "Failed to update profile", func(ctx context.Context) error {
		var err error
		user, err = s.backend.UpdateProfile(ctx, update)
		if err != nil {
			return err
		}
		u := user
		s.commitSuperseding(SetUser{User: &u}, ResourceProfile)
		return nil
	})
	return user, err
}

// FetchCategories loads every category.
func (s *Store) FetchCategories(ctx context.Context) error {
	return s.fetch(ctx, ResourceCategories, "Failed to fetch categories", func(ctx context.Context) (Mutation, error) {
		cats, err := s.backend.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return SetCategories{Categories: cats}, nil
	})
}

// CreateCategory adds a category and records it locally.
func (s *Store) CreateCategory(ctx context.Context, name string) (api.Category, error) {
	var cat api.Category
	err := s.run(ctx, ResourceCategories, "Failed to create category", func(ctx context.Context) error {
		var err error
		cat, err = s.backend.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		s.commitSuperseding(AddCategory{Category: cat}, ResourceCategories)
		return nil
	})
	return cat, err
}

// FetchRecipes loads the recipe collection matching q.
func (s *Store) FetchRecipes(ctx context.Context, q api.RecipeQuery) error {
	return s.fetch(ctx, ResourceRecipes, "Failed to fetch recipes", func(ctx context.Context) (Mutation, error) {
		recipes, err := s.backend.Recipes(ctx, q)
		if err != nil {
			return nil, err
		}
		return SetRecipes{Recipes: recipes}, nil
	})
}

// FetchMyRecipes loads the signed-in user's recipes.
func (s *Store) FetchMyRecipes(ctx context.Context) error {
	return s.fetch(ctx, ResourceMyRecipes, "Failed to fetch your recipes", func(ctx context.Context) (Mutation, error) {
		recipes, err := s.backend.MyRecipes(ctx)
		if err != nil {
			return nil, err
		}
		return SetMyRecipes{Recipes: recipes}, nil
	})
}

// FetchRecipe loads one recipe into the detail slot and returns it.
func (s *Store) FetchRecipe(ctx context.Context, id int64) (api.Recipe, error) {
	var recipe api.Recipe
	err := s.fetch(ctx, ResourceRecipe, "Failed to fetch recipe", func(ctx context.Context) (Mutation, error) {
		var err error
		recipe, err = s.backend.Recipe(ctx, id)
		if err != nil {
			return nil, err
		}
		r := recipe
		return SetCurrentRecipe{Recipe: &r}, nil
	})
	return recipe, err
}

// CreateRecipe creates a recipe and puts it first in the collection.
func (s *Store) CreateRecipe(ctx context.Context, in api.RecipeInput) (api.Recipe, error) {
	var recipe api.Recipe
	err := s.run(ctx, ResourceRecipes, "Failed to create recipe", func(ctx context.Context) error {
		var err error
		recipe, err = s.backend.CreateRecipe(ctx, in)
		if err != nil {
			return err
		}
		s.commitSuperseding(AddRecipe{Recipe: recipe}, ResourceRecipes)
		return nil
	})
	return recipe, err
}

// UpdateRecipe saves changes and replaces the local copy.
func (s *Store) UpdateRecipe(ctx context.Context, id int64, in api.RecipeInput) (api.Recipe, error) {
	var recipe api.Recipe
	err := s.run(ctx, ResourceRecipes, "Failed to update recipe", func(ctx context.Context) error {
		var err error
		recipe, err = s.backend.UpdateRecipe(ctx, id, in)
		if err != nil {
			return err
		}
		s.commitSuperseding(UpdateRecipe{Recipe: recipe}, ResourceRecipes, ResourceMyRecipes, ResourceRecipe)
		return nil
	})
	return recipe, err
}

// DeleteRecipe removes a recipe.
func (s *Store) DeleteRecipe(ctx context.Context, id int64) error {
	return s.run(ctx, ResourceRecipes, "Failed to delete recipe", func(ctx context.Context) error {
		if err := s.backend.DeleteRecipe(ctx, id); err != nil {
			return err
		}
		s.commitSuperseding(RemoveRecipe{ID: id}, ResourceRecipes, ResourceMyRecipes, ResourceRecipe)
		return nil
	})
}

// FetchFavorites loads the signed-in user's favorites.
func (s *Store) FetchFavorites(ctx context.Context) error {
	return s.fetch(ctx, ResourceFavorites, "Failed to fetch favorites", func(ctx context.Context) (Mutation, error) {
		favs, err := s.backend.Favorites(ctx)
		if err != nil {
			return nil, err
		}
		return SetFavorites{Favorites: favs}, nil
	})
}

// ToggleFavorite flips the favorite state of a recipe and reports whether it
// is now a favorite. Toggles on the same id run one at a time.
func (s *Store) ToggleFavorite(ctx context.Context, recipeID int64) (bool, error) {
	unlock := s.lockKey(recipeID)
	defer unlock()

	var favorited bool
	err := s.run(ctx, ResourceFavorites, "Failed to update favorite", func(ctx context.Context) error {
		if s.IsFavorite(recipeID) {
			if err := s.backend.RemoveFavorite(ctx, recipeID); err != nil {
				favorited = true
				return err
			}
			s.commitSuperseding(RemoveFavorite{RecipeID: recipeID}, ResourceFavorites)
			return nil
		}
		if err := s.backend.AddFavorite(ctx, recipeID); err != nil {
			return err
		}
		s.commitSuperseding(AddFavorite{RecipeID: recipeID}, ResourceFavorites)
		favorited = true
		return nil
	})
	return favorited, err
}

// RateRecipe submits a rating and reloads the recipe.
func (s *Store) RateRecipe(ctx context.Context, recipeID int64, rating int, comment string) error {
	err := s.run(ctx, ResourceRecipe, "Failed to rate recipe", func(ctx context.Context) error {
		return s.backend.RateRecipe(ctx, recipeID, rating, comment)
	})
	if err != nil {
		return err
	}
	_, err = s.FetchRecipe(ctx, recipeID)
	return err
}

// AddComment posts a comment and reloads the recipe.
func (s *Store) AddComment(ctx context.Context, recipeID int64, text string) error {
	err := s.run(ctx, ResourceRecipe, "Failed to add comment", func(ctx context.Context) error {
		return s.backend.AddComment(ctx, recipeID, text)
	})
	if err != nil {
		return err
	}
	_, err = s.FetchRecipe(ctx, recipeID)
	return err
}

// UpdateComment edits a comment and reloads the recipe it belongs to.
func (s *Store) UpdateComment(ctx context.Context, recipeID, commentID int64, text string) error {
	err := s.run(ctx, ResourceRecipe, "Failed to update comment", func(ctx context.Context) error {
		_, err := s.backend.UpdateComment(ctx, commentID, text)
		return err
	})
	if err != nil {
		return err
	}
	_, err = s.FetchRecipe(ctx, recipeID)
	return err
}

// DeleteComment removes a comment and reloads the recipe it belonged to.
func (s *Store) DeleteComment(ctx context.Context, recipeID, commentID int64) error {
	err := s.run(ctx, ResourceRecipe, "Failed to delete comment", func(ctx context.Context) error {
		return s.backend.DeleteComment(ctx, commentID)
	})
	if err != nil {
		return err
	}
	_, err = s.FetchRecipe(ctx, recipeID)
	return err
}

// FetchAdminUsers loads the account listing. Staff only.
func (s *Store) FetchAdminUsers(ctx context.Context) error {
	return s.fetch(ctx, ResourceAdminUsers, "Failed to fetch users", func(ctx context.Context) (Mutation, error) {
		users, err := s.backend.AdminUsers(ctx)
		if err != nil {
			return nil, err
		}
		return SetAdminUsers{Users: users}, nil
	})
}

// UpdateAdminUser changes an account's flags.
func (s *Store) UpdateAdminUser(ctx context.Context, id int64, update api.AdminUserUpdate) (api.User, error) {
	var user api.User
	err := s.run(ctx, ResourceAdminUsers, "Failed to update user", func(ctx context.Context) error {
		var err error
		user, err = s.backend.UpdateAdminUser(ctx, id, update)
		if err != nil {
			return err
		}
		s.commitSuperseding(UpdateAdminUser{User: user}, ResourceAdminUsers)
		return nil
	})
	return user, err
}
