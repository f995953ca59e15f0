package store

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/ladle/internal/api"
)

func apply(ms ...Mutation) State {
	var s State
	for _, m := range ms {
		m.apply(&s)
	}
	return s
}

func ids(recipes []api.Recipe) []int64 {
	out := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func TestAddRecipe_InsertsAtHead(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 1}, {ID: 2}}},
		AddRecipe{Recipe: api.Recipe{ID: 9, Title: "X"}},
	)
	assert.Equal(t, []int64{9, 1, 2}, ids(s.Recipes))
	assert.Equal(t, "X", s.Recipes[0].Title)
}

func TestAddRecipe_ReplacesExistingID(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 1}, {ID: 2, Title: "old"}}},
		AddRecipe{Recipe: api.Recipe{ID: 2, Title: "new"}},
	)
	assert.Equal(t, []int64{2, 1}, ids(s.Recipes))
	assert.Equal(t, "new", s.Recipes[0].Title)
}

func TestRecipeIDsStayUnique(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var s State
	for range 500 {
		id := int64(rng.IntN(8))
		var m Mutation
		switch rng.IntN(4) {
		case 0:
			m = AddRecipe{Recipe: api.Recipe{ID: id}}
		case 1:
			m = UpdateRecipe{Recipe: api.Recipe{ID: id, Title: "u"}}
		case 2:
			m = RemoveRecipe{ID: id}
		default:
			m = SetRecipes{Recipes: []api.Recipe{{ID: id}, {ID: id}, {ID: id + 1}}}
		}
		m.apply(&s)

		seen := map[int64]bool{}
		for _, r := range s.Recipes {
			require.False(t, seen[r.ID], "duplicate id %d after %s", r.ID, m.Name())
			seen[r.ID] = true
		}
	}
}

func TestFavoritesStayUnique(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	var s State
	for range 500 {
		id := int64(rng.IntN(5))
		if rng.IntN(2) == 0 {
			AddFavorite{RecipeID: id}.apply(&s)
		} else {
			RemoveFavorite{RecipeID: id}.apply(&s)
		}
		seen := map[int64]bool{}
		for _, f := range s.Favorites {
			require.False(t, seen[f.RecipeID()], "duplicate favorite %d", f.RecipeID())
			seen[f.RecipeID()] = true
		}
	}
}

func TestFavoriteRoundTrip(t *testing.T) {
	s := apply(SetFavorites{Favorites: []api.Favorite{{ID: 1, Recipe: api.Recipe{ID: 3}}}})
	before := s.clone()

	AddFavorite{RecipeID: 7}.apply(&s)
	assert.True(t, hasFavorite(s.Favorites, 7))
	AddFavorite{RecipeID: 7}.apply(&s)
	assert.Len(t, s.Favorites, 2)

	RemoveFavorite{RecipeID: 7}.apply(&s)
	assert.Equal(t, before.Favorites, s.Favorites)
}

func TestAddFavorite_UsesKnownRecipe(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 4, Title: "Soup"}}},
		AddFavorite{RecipeID: 4},
	)
	require.Len(t, s.Favorites, 1)
	assert.Equal(t, "Soup", s.Favorites[0].Recipe.Title)
}

func TestUpdateRecipe_ReplacesEverywhere(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 1, Title: "a"}}},
		SetMyRecipes{Recipes: []api.Recipe{{ID: 1, Title: "a"}}},
		SetCurrentRecipe{Recipe: &api.Recipe{ID: 1, Title: "a"}},
		UpdateRecipe{Recipe: api.Recipe{ID: 1, Title: "b"}},
	)
	assert.Equal(t, "b", s.Recipes[0].Title)
	assert.Equal(t, "b", s.MyRecipes[0].Title)
	assert.Equal(t, "b", s.CurrentRecipe.Title)
}

func TestUpdateRecipe_UnknownIDIsNoop(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 1}}},
		UpdateRecipe{Recipe: api.Recipe{ID: 2}},
	)
	assert.Equal(t, []int64{1}, ids(s.Recipes))
}

func TestRemoveRecipe_ClearsCurrent(t *testing.T) {
	s := apply(
		SetRecipes{Recipes: []api.Recipe{{ID: 1}, {ID: 2}}},
		SetCurrentRecipe{Recipe: &api.Recipe{ID: 2}},
		RemoveRecipe{ID: 2},
	)
	assert.Equal(t, []int64{1}, ids(s.Recipes))
	assert.Nil(t, s.CurrentRecipe)
}

func TestLogout_KeepsPublicData(t *testing.T) {
	s := apply(
		SetUser{User: &api.User{ID: 1, IsStaff: true}},
		SetCategories{Categories: []api.Category{{ID: 1, Name: "Soup"}}},
		SetRecipes{Recipes: []api.Recipe{{ID: 1}}},
		SetMyRecipes{Recipes: []api.Recipe{{ID: 1}}},
		SetFavorites{Favorites: []api.Favorite{{ID: 1, Recipe: api.Recipe{ID: 1}}}},
		SetAdminUsers{Users: []api.User{{ID: 1}}},
		Logout{},
	)
	assert.Nil(t, s.User)
	assert.False(t, s.IsAuthenticated)
	assert.Empty(t, s.Favorites)
	assert.Empty(t, s.MyRecipes)
	assert.Empty(t, s.AdminUsers)
	assert.Len(t, s.Categories, 1)
	assert.Len(t, s.Recipes, 1)
}

func TestUpdateAdminUser_RefreshesSignedInUser(t *testing.T) {
	s := apply(
		SetUser{User: &api.User{ID: 2, Username: "b"}},
		SetAdminUsers{Users: []api.User{{ID: 1}, {ID: 2, Username: "b"}}},
		UpdateAdminUser{User: api.User{ID: 2, Username: "b", IsStaff: true}},
	)
	assert.True(t, s.AdminUsers[1].IsStaff)
	assert.True(t, s.User.IsStaff)
}

func TestAddCategory_Dedupes(t *testing.T) {
	s := apply(
		AddCategory{Category: api.Category{ID: 1, Name: "Soup"}},
		AddCategory{Category: api.Category{ID: 1, Name: "Soup"}},
	)
	assert.Len(t, s.Categories, 1)
}
