package store

import (
	"slices"

	"github.com/five82/ladle/internal/api"
)

// State is the full client-side state.
type State struct {
	User            *api.User
	IsAuthenticated bool
	Categories      []api.Category
	Recipes         []api.Recipe
	MyRecipes       []api.Recipe
	CurrentRecipe   *api.Recipe
	Favorites       []api.Favorite
	AdminUsers      []api.User
	Error           string
}

// Resource names a slice of state that actions load independently.
type Resource string

const (
	ResourceSession    Resource = "session"
	ResourceProfile    Resource = "profile"
	ResourceCategories Resource = "categories"
	ResourceRecipes    Resource = "recipes"
	ResourceMyRecipes  Resource = "my_recipes"
	ResourceRecipe     Resource = "recipe"
	ResourceFavorites  Resource = "favorites"
	ResourceAdminUsers Resource = "admin_users"
)

var allResources = []Resource{
	ResourceSession,
	ResourceProfile,
	ResourceCategories,
	ResourceRecipes,
	ResourceMyRecipes,
	ResourceRecipe,
	ResourceFavorites,
	ResourceAdminUsers,
}

func (s State) clone() State {
	out := s
	out.User = cloneUser(s.User)
	out.Categories = slices.Clone(s.Categories)
	out.Recipes = cloneRecipes(s.Recipes)
	out.MyRecipes = cloneRecipes(s.MyRecipes)
	out.CurrentRecipe = cloneRecipe(s.CurrentRecipe)
	out.Favorites = slices.Clone(s.Favorites)
	out.AdminUsers = slices.Clone(s.AdminUsers)
	return out
}

func cloneUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	dup := *u
	return &dup
}

func cloneRecipe(r *api.Recipe) *api.Recipe {
	if r == nil {
		return nil
	}
	dup := *r
	dup.Ratings = slices.Clone(r.Ratings)
	dup.Comments = slices.Clone(r.Comments)
	return &dup
}

func cloneRecipes(items []api.Recipe) []api.Recipe {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.Recipe, len(items))
	for i := range items {
		dup[i] = *cloneRecipe(&items[i])
	}
	return dup
}
