package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/ladle/internal/httpclient"
	"github.com/five82/ladle/internal/session"
)

// Transport sends requests and owns the stored session.
// *httpclient.Client implements it.
type Transport interface {
	httpclient.Sender
	Session() session.Record
	Establish(ctx context.Context, rec session.Record) error
	UpdateUser(ctx context.Context, userJSON, username string) error
	ClearSession(ctx context.Context) error
}

// Ensure the HTTP client satisfies Transport at compile time.
var _ Transport = (*httpclient.Client)(nil)

const (
	minRating = 1
	maxRating = 5
)

// Service exposes one method per backend operation.
type Service struct {
	t   Transport
	log *zap.Logger
}

// New wraps t. A nil logger discards output.
func New(t Transport, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{t: t, log: logger.Named("api")}
}

// SessionUser decodes the profile stored in rec. It returns nil when none is stored.
func SessionUser(rec session.Record) (*User, error) {
	if strings.TrimSpace(rec.User) == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(rec.User), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

// Session returns the stored session record.
func (s *Service) Session() session.Record {
	return s.t.Session()
}

// Register creates an account. It does not sign in.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	var u User
	if err := s.t.Send(ctx, http.MethodPost, "/auth/register/", reg, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login obtains tokens and persists the full session before returning.
func (s *Service) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	var resp LoginResponse
	if err := s.t.Send(ctx, http.MethodPost, "/auth/login/", creds, nil, &resp); err != nil {
		return LoginResponse{}, err
	}
	if resp.Access == "" {
		return LoginResponse{}, fmt.Errorf("login response missing access token")
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("encode user: %w", err)
	}
	username := resp.User.Username
	if username == "" {
		username = creds.Username
	}
	rec := session.Record{
		Access:        resp.Access,
		Refresh:       resp.Refresh,
		User:          string(userJSON),
		Username:      username,
		Authenticated: true,
	}
	if err := s.t.Establish(ctx, rec); err != nil {
		return LoginResponse{}, err
	}
	s.log.Info("signed in", zap.String("username", username), zap.Bool("staff", resp.User.IsStaff))
	return resp, nil
}

// Logout revokes the refresh token server-side when possible and always
// clears the local session. Only a local clear failure is returned.
func (s *Service) Logout(ctx context.Context) error {
	if refresh := s.t.Session().Refresh; refresh != "" {
		body := map[string]string{"refresh": refresh}
		if err := s.t.Send(ctx, http.MethodPost, "/auth/logout/", body, nil, nil); err != nil {
			s.log.Warn("server logout failed", zap.Error(err))
		}
	}
	return s.t.ClearSession(context.WithoutCancel(ctx))
}

// Profile fetches the signed-in user's profile.
func (s *Service) Profile(ctx context.Context) (User, error) {
	var u User
	if err := s.t.Send(ctx, http.MethodGet, "/auth/profile/", nil, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateProfile patches the profile and replaces the stored copy.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	var u User
	if err := s.t.Send(ctx, http.MethodPatch, "/auth/profile/", update, nil, &u); err != nil {
		return User{}, err
	}
	if err := s.storeUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) storeUser(ctx context.Context, u User) error {
	userJSON, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.t.UpdateUser(ctx, string(userJSON), u.Username)
}

// Recipes lists recipes matching q.
func (s *Service) Recipes(ctx context.Context, q RecipeQuery) ([]Recipe, error) {
	return fetchList[Recipe](ctx, s.t, "/recipes/", q)
}

// MyRecipes lists recipes owned by the signed-in user.
func (s *Service) MyRecipes(ctx context.Context) ([]Recipe, error) {
	return fetchList[Recipe](ctx, s.t, "/recipes/my_recipes/", RecipeQuery{})
}

// Recipe fetches one recipe with its ratings and comments.
func (s *Service) Recipe(ctx context.Context, id int64) (Recipe, error) {
	var r Recipe
	if err := s.t.Send(ctx, http.MethodGet, recipePath(id), nil, nil, &r); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// CreateRecipe creates a recipe owned by the signed-in user.
func (s *Service) CreateRecipe(ctx context.Context, in RecipeInput) (Recipe, error) {
	var r Recipe
	if err := s.t.Send(ctx, http.MethodPost, "/recipes/", in, nil, &r); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// UpdateRecipe patches the fields set in in.
func (s *Service) UpdateRecipe(ctx context.Context, id int64, in RecipeInput) (Recipe, error) {
	var r Recipe
	if err := s.t.Send(ctx, http.MethodPatch, recipePath(id), in, nil, &r); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// DeleteRecipe removes a recipe.
func (s *Service) DeleteRecipe(ctx context.Context, id int64) error {
	return s.t.Send(ctx, http.MethodDelete, recipePath(id), nil, nil, nil)
}

// Favorites lists the signed-in user's favorites.
func (s *Service) Favorites(ctx context.Context) ([]Favorite, error) {
	return fetchList[Favorite](ctx, s.t, "/favorites/", RecipeQuery{})
}

// AddFavorite marks a recipe as a favorite.
func (s *Service) AddFavorite(ctx context.Context, id int64) error {
	return s.t.Send(ctx, http.MethodPost, recipePath(id)+"favorite/", nil, nil, nil)
}

// RemoveFavorite unmarks a recipe.
func (s *Service) RemoveFavorite(ctx context.Context, id int64) error {
	return s.t.Send(ctx, http.MethodDelete, recipePath(id)+"unfavorite/", nil, nil, nil)
}

// RateRecipe submits a 1-5 rating with an optional comment.
func (s *Service) RateRecipe(ctx context.Context, id int64, rating int, comment string) error {
	if rating < minRating || rating > maxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", minRating, maxRating, rating)
	}
	body := map[string]any{"rating": rating}
	if c := strings.TrimSpace(comment); c != "" {
		body["comment"] = c
	}
	return s.t.Send(ctx, http.MethodPost, recipePath(id)+"rate/", body, nil, nil)
}

// AddComment posts a comment on a recipe.
func (s *Service) AddComment(ctx context.Context, id int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("comment text required")
	}
	return s.t.Send(ctx, http.MethodPost, recipePath(id)+"comment/", map[string]string{"text": text}, nil, nil)
}

// UpdateComment edits a comment's text.
func (s *Service) UpdateComment(ctx context.Context, id int64, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, fmt.Errorf("comment text required")
	}
	var c Comment
	if err := s.t.Send(ctx, http.MethodPatch, commentPath(id), map[string]string{"text": text}, nil, &c); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	return s.t.Send(ctx, http.MethodDelete, commentPath(id), nil, nil, nil)
}

// Categories lists every category.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return fetchList[Category](ctx, s.t, "/categories/", RecipeQuery{})
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("category name required")
	}
	var c Category
	if err := s.t.Send(ctx, http.MethodPost, "/categories/", map[string]string{"name": name}, nil, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func recipePath(id int64) string {
	return fmt.Sprintf("/recipes/%d/", id)
}

func commentPath(id int64) string {
	return fmt.Sprintf("/comments/%d/", id)
}

// fetchList accepts both bare arrays and paginated {"results": [...]} bodies.
func fetchList[T any](ctx context.Context, sender httpclient.Sender, path string, q RecipeQuery) ([]T, error) {
	var raw json.RawMessage
	if err := sender.Send(ctx, http.MethodGet, path, nil, q.Values(), &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return page.Results, nil
}
