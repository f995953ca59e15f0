package store

import (
	"slices"

	"github.com/five82/ladle/internal/api"
)

// Mutation is a synchronous state transition. Only this package can define one.
type Mutation interface {
	Name() string
	apply(*State)
}

// SetUser replaces the signed-in profile. A nil user signs out the view.
type SetUser struct{ User *api.User }

func (SetUser) Name() string { return "SET_USER" }
func (m SetUser) apply(s *State) {
	s.User = cloneUser(m.User)
	s.IsAuthenticated = m.User != nil
}

// SetAuthenticated sets the authenticated flag.
type SetAuthenticated struct{ Value bool }

func (SetAuthenticated) Name() string { return "SET_AUTHENTICATED" }
func (m SetAuthenticated) apply(s *State) { s.IsAuthenticated = m.Value }

// SetCategories replaces the category set.
type SetCategories struct{ Categories []api.Category }

func (SetCategories) Name() string { return "SET_CATEGORIES" }
func (m SetCategories) apply(s *State) { s.Categories = slices.Clone(m.Categories) }

// AddCategory appends a category unless its id is already known.
type AddCategory struct{ Category api.Category }

func (AddCategory) Name() string { return "ADD_CATEGORY" }
func (m AddCategory) apply(s *State) {
	if slices.ContainsFunc(s.Categories, func(c api.Category) bool { return c.ID == m.Category.ID }) {
		return
	}
	s.Categories = append(s.Categories, m.Category)
}

// SetRecipes replaces the recipe collection, dropping repeated ids.
type SetRecipes struct{ Recipes []api.Recipe }

func (SetRecipes) Name() string { return "SET_RECIPES" }
func (m SetRecipes) apply(s *State) { s.Recipes = uniqueRecipes(m.Recipes) }

// SetMyRecipes replaces the signed-in user's own recipes.
type SetMyRecipes struct{ Recipes []api.Recipe }

func (SetMyRecipes) Name() string { return "SET_MY_RECIPES" }
func (m SetMyRecipes) apply(s *State) { s.MyRecipes = uniqueRecipes(m.Recipes) }

// SetCurrentRecipe points the detail view at a recipe.
type SetCurrentRecipe struct{ Recipe *api.Recipe }

func (SetCurrentRecipe) Name() string { return "SET_CURRENT_RECIPE" }
func (m SetCurrentRecipe) apply(s *State) { s.CurrentRecipe = cloneRecipe(m.Recipe) }

// AddRecipe puts a recipe at the head of the collection. An existing entry
// with the same id is removed first.
type AddRecipe struct{ Recipe api.Recipe }

func (AddRecipe) Name() string { return "ADD_RECIPE" }
func (m AddRecipe) apply(s *State) {
	rest := slices.DeleteFunc(s.Recipes, func(r api.Recipe) bool { return r.ID == m.Recipe.ID })
	s.Recipes = append([]api.Recipe{*cloneRecipe(&m.Recipe)}, rest...)
}

// UpdateRecipe replaces a recipe in place wherever it appears.
type UpdateRecipe struct{ Recipe api.Recipe }

func (UpdateRecipe) Name() string { return "UPDATE_RECIPE" }
func (m UpdateRecipe) apply(s *State) {
	replace := func(items []api.Recipe) {
		for i := range items {
			if items[i].ID == m.Recipe.ID {
				items[i] = *cloneRecipe(&m.Recipe)
				return
			}
		}
	}
	replace(s.Recipes)
	replace(s.MyRecipes)
	if s.CurrentRecipe != nil && s.CurrentRecipe.ID == m.Recipe.ID {
		s.CurrentRecipe = cloneRecipe(&m.Recipe)
	}
}

// RemoveRecipe drops a recipe by id.
type RemoveRecipe struct{ ID int64 }

func (RemoveRecipe) Name() string { return "REMOVE_RECIPE" }
func (m RemoveRecipe) apply(s *State) {
	match := func(r api.Recipe) bool { return r.ID == m.ID }
	s.Recipes = slices.DeleteFunc(s.Recipes, match)
	s.MyRecipes = slices.DeleteFunc(s.MyRecipes, match)
	if s.CurrentRecipe != nil && s.CurrentRecipe.ID == m.ID {
		s.CurrentRecipe = nil
	}
}

// SetFavorites replaces the favorite list.
type SetFavorites struct{ Favorites []api.Favorite }

func (SetFavorites) Name() string { return "SET_FAVORITES" }
func (m SetFavorites) apply(s *State) {
	s.Favorites = nil
	for _, f := range m.Favorites {
		if !hasFavorite(s.Favorites, f.RecipeID()) {
			s.Favorites = append(s.Favorites, f)
		}
	}
}

// AddFavorite records a favorite. Adding an existing one is a no-op.
type AddFavorite struct{ RecipeID int64 }

func (AddFavorite) Name() string { return "ADD_FAVORITE" }
func (m AddFavorite) apply(s *State) {
	if hasFavorite(s.Favorites, m.RecipeID) {
		return
	}
	fav := api.Favorite{Recipe: api.Recipe{ID: m.RecipeID}}
	if i := slices.IndexFunc(s.Recipes, func(r api.Recipe) bool { return r.ID == m.RecipeID }); i >= 0 {
		fav.Recipe = *cloneRecipe(&s.Recipes[i])
	}
	s.Favorites = append(s.Favorites, fav)
}

// RemoveFavorite forgets a favorite.
type RemoveFavorite struct{ RecipeID int64 }

func (RemoveFavorite) Name() string { return "REMOVE_FAVORITE" }
func (m RemoveFavorite) apply(s *State) {
	s.Favorites = slices.DeleteFunc(s.Favorites, func(f api.Favorite) bool { return f.RecipeID() == m.RecipeID })
}

// SetAdminUsers replaces the admin user listing.
type SetAdminUsers struct{ Users []api.User }

func (SetAdminUsers) Name() string { return "SET_ADMIN_USERS" }
func (m SetAdminUsers) apply(s *State) { s.AdminUsers = slices.Clone(m.Users) }

// UpdateAdminUser replaces one entry of the admin listing.
type UpdateAdminUser struct{ User api.User }

func (UpdateAdminUser) Name() string { return "UPDATE_ADMIN_USER" }
func (m UpdateAdminUser) apply(s *State) {
	for i := range s.AdminUsers {
		if s.AdminUsers[i].ID == m.User.ID {
			s.AdminUsers[i] = m.User
		}
	}
	if s.User != nil && s.User.ID == m.User.ID {
		s.User = cloneUser(&m.User)
	}
}

// SetError records the last failure message.
type SetError struct{ Message string }

func (SetError) Name() string { return "SET_ERROR" }
func (m SetError) apply(s *State) { s.Error = m.Message }

// ClearError forgets the last failure.
type ClearError struct{}

func (ClearError) Name() string { return "CLEAR_ERROR" }
func (ClearError) apply(s *State) { s.Error = "" }

// Logout drops everything tied to the signed-in user.
type Logout struct{}

func (Logout) Name() string { return "LOGOUT" }
func (Logout) apply(s *State) {
	s.User = nil
	s.IsAuthenticated = false
	s.Favorites = nil
	s.MyRecipes = nil
	s.AdminUsers = nil
}

func hasFavorite(favs []api.Favorite, recipeID int64) bool {
	return slices.ContainsFunc(favs, func(f api.Favorite) bool { return f.RecipeID() == recipeID })
}

func uniqueRecipes(items []api.Recipe) []api.Recipe {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(items))
	out := make([]api.Recipe, 0, len(items))
	for i := range items {
		if _, dup := seen[items[i].ID]; dup {
			continue
		}
		seen[items[i].ID] = struct{}{}
		out = append(out, *cloneRecipe(&items[i]))
	}
	return out
}
