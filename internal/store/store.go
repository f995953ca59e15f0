package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/session"
)

// Backend is the API surface actions call. *api.Service implements it.
type Backend interface {
	Session() session.Record
	Login(ctx context.Context, creds api.Credentials) (api.LoginResponse, error)
	Register(ctx context.Context, reg api.Registration) (api.User, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (api.User, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (api.User, error)
	Categories(ctx context.Context) ([]api.Category, error)
	CreateCategory(ctx context.Context, name string) (api.Category, error)
	Recipes(ctx context.Context, q api.RecipeQuery) ([]api.Recipe, error)
	MyRecipes(ctx context.Context) ([]api.Recipe, error)
	Recipe(ctx context.Context, id int64) (api.Recipe, error)
	CreateRecipe(ctx context.Context, in api.RecipeInput) (api.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, in api.RecipeInput) (api.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	Favorites(ctx context.Context) ([]api.Favorite, error)
	AddFavorite(ctx context.Context, id int64) error
	RemoveFavorite(ctx context.Context, id int64) error
	RateRecipe(ctx context.Context, id int64, rating int, comment string) error
	AddComment(ctx context.Context, id int64, text string) error
	UpdateComment(ctx context.Context, id int64, text string) (api.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	AdminUsers(ctx context.Context) ([]api.User, error)
	UpdateAdminUser(ctx context.Context, id int64, update api.AdminUserUpdate) (api.User, error)
}

// Ensure the API service satisfies Backend at compile time.
var _ Backend = (*api.Service)(nil)

// Store is the state container.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu      sync.RWMutex
	state   State
	busy    map[Resource]int
	epochs  map[Resource]uint64
	subs    map[int]func(Mutation)
	nextSub int

	keysMu   sync.Mutex
	keyLocks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// New builds a store and seeds the session view from what backend has stored.
func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend:  backend,
		log:      logger.Named("store"),
		busy:     make(map[Resource]int),
		epochs:   make(map[Resource]uint64),
		subs:     make(map[int]func(Mutation)),
		keyLocks: make(map[int64]*keyedLock),
	}

	rec := backend.Session()
	user, err := api.SessionUser(rec)
	if err != nil {
		s.log.Warn("ignoring stored profile", zap.Error(err))
	}
	s.state.User = user
	s.state.IsAuthenticated = rec.Access != ""
	return s
}

// Commit applies m and notifies subscribers.
func (s *Store) Commit(m Mutation) {
	s.mu.Lock()
	m.apply(&s.state)
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, m)
}

// Subscribe registers fn to run after every committed mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Mutation)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) subscribersLocked() []func(Mutation) {
	if len(s.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Mutation), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

func notify(subs []func(Mutation), m Mutation) {
	for _, fn := range subs {
		fn(m)
	}
}

// begin issues a new epoch for r, superseding every earlier one.
func (s *Store) begin(r Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[r]++
	return s.epochs[r]
}

func (s *Store) isCurrent(r Resource, epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epochs[r] == epoch
}

// commitIfCurrent applies m only when epoch is still the latest for r.
func (s *Store) commitIfCurrent(r Resource, epoch uint64, m Mutation) bool {
	s.mu.Lock()
	if s.epochs[r] != epoch {
		s.mu.Unlock()
		s.log.Debug("dropping superseded result", zap.String("resource", string(r)), zap.String("mutation", m.Name()))
		return false
	}
	m.apply(&s.state)
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, m)
	return true
}

// commitSuperseding applies m and invalidates in-flight fetches of each r.
func (s *Store) commitSuperseding(m Mutation, rs ...Resource) {
	s.mu.Lock()
	for _, r := range rs {
		s.epochs[r]++
	}
	m.apply(&s.state)
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, m)
}

// track marks r busy until the returned function runs.
func (s *Store) track(r Resource) func() {
	s.mu.Lock()
	s.busy[r]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.busy[r]--; s.busy[r] <= 0 {
			delete(s.busy, r)
		}
	}
}

// lockKey serializes work on one recipe id.
func (s *Store) lockKey(id int64) func() {
	s.keysMu.Lock()
	l, ok := s.keyLocks[id]
	if !ok {
		l = &keyedLock{}
		s.keyLocks[id] = l
	}
	l.refs++
	s.keysMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.keysMu.Lock()
		defer s.keysMu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(s.keyLocks, id)
		}
	}
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

func (s *Store) CurrentUser() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.state.User)
}

// IsAdmin reports whether the loaded user is staff. False when no user is loaded.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User != nil && s.state.User.IsStaff
}

func (s *Store) Categories() []api.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Categories)
}

func (s *Store) Recipes() []api.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecipes(s.state.Recipes)
}

func (s *Store) MyRecipes() []api.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecipes(s.state.MyRecipes)
}

func (s *Store) CurrentRecipe() *api.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecipe(s.state.CurrentRecipe)
}

func (s *Store) Favorites() []api.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Favorites)
}

// IsFavorite reports whether recipeID is among the favorites.
func (s *Store) IsFavorite(recipeID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasFavorite(s.state.Favorites, recipeID)
}

func (s *Store) AdminUsers() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.AdminUsers)
}

// Error returns the last recorded failure message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

// Loading reports whether any action is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.busy) > 0
}

// IsLoading reports whether an action on r is in flight.
func (s *Store) IsLoading(r Resource) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy[r] > 0
}
