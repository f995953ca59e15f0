package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// User is a profile as returned by /auth/profile/ and the admin endpoints.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	IsStaff    bool      `json:"is_staff"`
	IsActive   bool      `json:"is_active,omitempty"`
	DateJoined time.Time `json:"date_joined,omitzero"`
}

// Credentials are what /auth/login/ accepts.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the payload for /auth/register/.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// LoginResponse is the token pair plus the signed-in profile.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Category groups recipes.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Rating is one user's score for a recipe.
type Rating struct {
	ID      int64  `json:"id"`
	User    string `json:"user"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Comment is a note left on a recipe.
type Comment struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Recipe is the full recipe representation.
type Recipe struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Ingredients   string    `json:"ingredients"`
	Steps         string    `json:"steps"`
	Category      *int64    `json:"category"`
	Owner         string    `json:"owner,omitempty"`
	AverageRating float64   `json:"average_rating,omitempty"`
	Ratings       []Rating  `json:"ratings,omitempty"`
	Comments      []Comment `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// RecipeInput is the writable subset of a recipe. Nil fields are omitted so
// the same type serves create and partial update.
type RecipeInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Ingredients *string `json:"ingredients,omitempty"`
	Steps       *string `json:"steps,omitempty"`
	Category    *int64  `json:"category,omitempty"`
}

// Favorite links the signed-in user to a recipe.
type Favorite struct {
	ID     int64  `json:"id,omitempty"`
	Recipe Recipe `json:"recipe"`
}

// RecipeID is the relation key.
func (f Favorite) RecipeID() int64 {
	return f.Recipe.ID
}

// RecipeQuery filters /recipes/.
type RecipeQuery struct {
	Search   string
	Category int64
	Owner    string
	Ordering string
	Page     int
}

// Values encodes the non-empty filters.
func (q RecipeQuery) Values() url.Values {
	values := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if q.Category > 0 {
		values.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if owner := strings.TrimSpace(q.Owner); owner != "" {
		values.Set("owner", owner)
	}
	if ordering := strings.TrimSpace(q.Ordering); ordering != "" {
		values.Set("ordering", ordering)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// AdminUserUpdate is what staff may change on another account.
type AdminUserUpdate struct {
	IsStaff  *bool `json:"is_staff,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}
