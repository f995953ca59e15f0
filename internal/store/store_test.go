package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/httpclient"
	"github.com/five82/ladle/internal/session"
)

// fakeBackend answers from hook functions; unset hooks return zero values.
type fakeBackend struct {
	rec session.Record

	login       func(api.Credentials) (api.LoginResponse, error)
	logout      func() error
	recipes     func(context.Context, api.RecipeQuery) ([]api.Recipe, error)
	recipe      func(int64) (api.Recipe, error)
	create      func(api.RecipeInput) (api.Recipe, error)
	deleteFn    func(int64) error
	favorites   func() ([]api.Favorite, error)
	rate        func(int64, int, string) error
	adminUpdate func(int64, api.AdminUserUpdate) (api.User, error)

	mu           sync.Mutex
	favoriteSet  map[int64]bool
	addCalls     atomic.Int32
	removeCalls  atomic.Int32
	favoriteWait time.Duration
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Session() session.Record { return f.rec }

func (f *fakeBackend) Login(_ context.Context, c api.Credentials) (api.LoginResponse, error) {
	if f.login == nil {
		return api.LoginResponse{}, nil
	}
	return f.login(c)
}

func (f *fakeBackend) Register(context.Context, api.Registration) (api.User, error) {
	return api.User{}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	if f.logout == nil {
		return nil
	}
	return f.logout()
}

func (f *fakeBackend) Profile(context.Context) (api.User, error) { return api.User{}, nil }

func (f *fakeBackend) UpdateProfile(context.Context, api.ProfileUpdate) (api.User, error) {
	return api.User{}, nil
}

func (f *fakeBackend) Categories(context.Context) ([]api.Category, error) { return nil, nil }

func (f *fakeBackend) CreateCategory(_ context.Context, name string) (api.Category, error) {
	return api.Category{ID: 1, Name: name}, nil
}

func (f *fakeBackend) Recipes(ctx context.Context, q api.RecipeQuery) ([]api.Recipe, error) {
	if f.recipes == nil {
		return nil, nil
	}
	return f.recipes(ctx, q)
}

func (f *fakeBackend) MyRecipes(context.Context) ([]api.Recipe, error) { return nil, nil }

func (f *fakeBackend) Recipe(_ context.Context, id int64) (api.Recipe, error) {
	if f.recipe == nil {
		return api.Recipe{ID: id}, nil
	}
	return f.recipe(id)
}

func (f *fakeBackend) CreateRecipe(_ context.Context, in api.RecipeInput) (api.Recipe, error) {
	if f.create == nil {
		return api.Recipe{}, nil
	}
	return f.create(in)
}

func (f *fakeBackend) UpdateRecipe(_ context.Context, id int64, in api.RecipeInput) (api.Recipe, error) {
	r := api.Recipe{ID: id}
	if in.Title != nil {
		r.Title = *in.Title
	}
	return r, nil
}

func (f *fakeBackend) DeleteRecipe(_ context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(id)
}

func (f *fakeBackend) Favorites(context.Context) ([]api.Favorite, error) {
	if f.favorites == nil {
		return nil, nil
	}
	return f.favorites()
}

func (f *fakeBackend) AddFavorite(_ context.Context, id int64) error {
	f.addCalls.Add(1)
	time.Sleep(f.favoriteWait)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.favoriteSet == nil {
		f.favoriteSet = map[int64]bool{}
	}
	f.favoriteSet[id] = true
	return nil
}

func (f *fakeBackend) RemoveFavorite(_ context.Context, id int64) error {
	f.removeCalls.Add(1)
	time.Sleep(f.favoriteWait)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.favoriteSet, id)
	return nil
}

func (f *fakeBackend) RateRecipe(_ context.Context, id int64, rating int, comment string) error {
	if f.rate == nil {
		return nil
	}
	return f.rate(id, rating, comment)
}

func (f *fakeBackend) AddComment(context.Context, int64, string) error { return nil }

func (f *fakeBackend) UpdateComment(context.Context, int64, string) (api.Comment, error) {
	return api.Comment{}, nil
}

func (f *fakeBackend) DeleteComment(context.Context, int64) error { return nil }

func (f *fakeBackend) AdminUsers(context.Context) ([]api.User, error) { return nil, nil }

func (f *fakeBackend) UpdateAdminUser(_ context.Context, id int64, u api.AdminUserUpdate) (api.User, error) {
	if f.adminUpdate == nil {
		return api.User{ID: id}, nil
	}
	return f.adminUpdate(id, u)
}

func newStore(t *testing.T, b *fakeBackend) *Store {
	t.Helper()
	return New(b, zaptest.NewLogger(t))
}

func TestNew_RehydratesSession(t *testing.T) {
	s := newStore(t, &fakeBackend{rec: session.Record{
		Access: "t1",
		User:   `{"id":3,"username":"c","is_staff":true}`,
	}})
	assert.True(t, s.IsAuthenticated())
	require.NotNil(t, s.CurrentUser())
	assert.Equal(t, "c", s.CurrentUser().Username)
	assert.True(t, s.IsAdmin())
}

func TestNew_CorruptStoredUser(t *testing.T) {
	s := newStore(t, &fakeBackend{rec: session.Record{Access: "t1", User: "{not json"}})
	assert.True(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	assert.False(t, s.IsAdmin())
}

func TestLogin_SetsAuthenticatedUser(t *testing.T) {
	b := &fakeBackend{login: func(c api.Credentials) (api.LoginResponse, error) {
		require.Equal(t, api.Credentials{Username: "a", Password: "p"}, c)
		return api.LoginResponse{Access: "t1", Refresh: "r1", User: api.User{ID: 1, IsStaff: false}}, nil
	}}
	s := newStore(t, b)

	var names []string
	unsubscribe := s.Subscribe(func(m Mutation) { names = append(names, m.Name()) })

	_, err := s.Login(context.Background(), api.Credentials{Username: "a", Password: "p"})
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
	assert.Equal(t, []string{"CLEAR_ERROR", "SET_USER", "SET_AUTHENTICATED"}, names)
	assert.False(t, s.Loading())

	unsubscribe()
	s.Commit(ClearError{})
	assert.Len(t, names, 3)
}

func TestLogin_FailureRecordsDetail(t *testing.T) {
	b := &fakeBackend{login: func(api.Credentials) (api.LoginResponse, error) {
		return api.LoginResponse{}, &httpclient.Error{StatusCode: http.StatusUnauthorized, Detail: "bad credentials"}
	}}
	s := newStore(t, b)

	_, err := s.Login(context.Background(), api.Credentials{})
	require.Error(t, err)
	assert.Equal(t, "bad credentials", s.Error())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.Loading())
}

func TestCreateRecipe_PutsRecipeFirst(t *testing.T) {
	b := &fakeBackend{create: func(api.RecipeInput) (api.Recipe, error) {
		return api.Recipe{ID: 9, Title: "X"}, nil
	}}
	s := newStore(t, b)
	s.Commit(SetRecipes{Recipes: []api.Recipe{{ID: 1}}})

	title := "X"
	got, err := s.CreateRecipe(context.Background(), api.RecipeInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)

	recipes := s.Recipes()
	require.Len(t, recipes, 2)
	assert.Equal(t, api.Recipe{ID: 9, Title: "X"}, recipes[0])
}

func TestDeleteRecipe_FailureKeepsRecipe(t *testing.T) {
	b := &fakeBackend{deleteFn: func(int64) error {
		return &httpclient.Error{StatusCode: http.StatusInternalServerError}
	}}
	s := newStore(t, b)
	s.Commit(SetRecipes{Recipes: []api.Recipe{{ID: 1}}})

	require.Error(t, s.DeleteRecipe(context.Background(), 1))
	assert.Equal(t, "Failed to delete recipe", s.Error())
	assert.Len(t, s.Recipes(), 1)
	assert.False(t, s.Loading())
}

func TestAction_ClearsPreviousError(t *testing.T) {
	s := newStore(t, &fakeBackend{})
	s.Commit(SetError{Message: "old"})

	require.NoError(t, s.FetchRecipes(context.Background(), api.RecipeQuery{}))
	assert.Empty(t, s.Error())
}

func TestFetchRecipes_StaleResponseDiscarded(t *testing.T) {
	releaseSlow := make(chan struct{})
	slowStarted := make(chan struct{})
	b := &fakeBackend{recipes: func(_ context.Context, q api.RecipeQuery) ([]api.Recipe, error) {
		if q.Search == "slow" {
			close(slowStarted)
			<-releaseSlow
			return []api.Recipe{{ID: 1, Title: "slow"}}, nil
		}
		return []api.Recipe{{ID: 2, Title: "fast"}}, nil
	}}
	s := newStore(t, b)

	done := make(chan error, 1)
	go func() { done <- s.FetchRecipes(context.Background(), api.RecipeQuery{Search: "slow"}) }()
	<-slowStarted

	require.NoError(t, s.FetchRecipes(context.Background(), api.RecipeQuery{Search: "fast"}))
	assert.True(t, s.IsLoading(ResourceRecipes))

	close(releaseSlow)
	require.NoError(t, <-done)

	recipes := s.Recipes()
	require.Len(t, recipes, 1)
	assert.Equal(t, "fast", recipes[0].Title)
	assert.False(t, s.IsLoading(ResourceRecipes))
}

func TestFetchRecipes_LocalWriteSupersedesFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	b := &fakeBackend{
		recipes: func(context.Context, api.RecipeQuery) ([]api.Recipe, error) {
			close(started)
			<-release
			return []api.Recipe{{ID: 1}}, nil
		},
		create: func(api.RecipeInput) (api.Recipe, error) { return api.Recipe{ID: 9}, nil },
	}
	s := newStore(t, b)

	done := make(chan error, 1)
	go func() { done <- s.FetchRecipes(context.Background(), api.RecipeQuery{}) }()
	<-started

	_, err := s.CreateRecipe(context.Background(), api.RecipeInput{})
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []int64{9}, ids(s.Recipes()))
}

func TestFetch_StaleFailureNotRecorded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	b := &fakeBackend{recipes: func(context.Context, api.RecipeQuery) ([]api.Recipe, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return nil, errors.New("boom")
		}
		return []api.Recipe{{ID: 2}}, nil
	}}
	s := newStore(t, b)

	done := make(chan error, 1)
	go func() { done <- s.FetchRecipes(context.Background(), api.RecipeQuery{}) }()
	<-started
	require.NoError(t, s.FetchRecipes(context.Background(), api.RecipeQuery{}))
	close(release)

	err := <-done
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Empty(t, s.Error())
	assert.Equal(t, []int64{2}, ids(s.Recipes()))
}

func TestBusyIsCountedPerResource(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	b := &fakeBackend{recipes: func(context.Context, api.RecipeQuery) ([]api.Recipe, error) {
		started.Done()
		<-release
		return nil, nil
	}}
	s := newStore(t, b)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.FetchRecipes(context.Background(), api.RecipeQuery{})
		}()
	}
	started.Wait()
	assert.True(t, s.IsLoading(ResourceRecipes))
	assert.False(t, s.IsLoading(ResourceFavorites))
	assert.True(t, s.Loading())

	close(release)
	wg.Wait()
	assert.False(t, s.Loading())
}

func TestToggleFavorite(t *testing.T) {
	b := &fakeBackend{}
	s := newStore(t, b)
	ctx := context.Background()

	on, err := s.ToggleFavorite(ctx, 5)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsFavorite(5))

	on, err = s.ToggleFavorite(ctx, 5)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, s.IsFavorite(5))
	assert.Equal(t, int32(1), b.addCalls.Load())
	assert.Equal(t, int32(1), b.removeCalls.Load())
}

func TestToggleFavorite_ConcurrentTogglesAlternate(t *testing.T) {
	b := &fakeBackend{favoriteWait: 5 * time.Millisecond}
	s := newStore(t, b)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleFavorite(context.Background(), 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), b.addCalls.Load())
	assert.Equal(t, int32(2), b.removeCalls.Load())
	assert.False(t, s.IsFavorite(5))
}

func TestRateRecipe_RefetchesRecipe(t *testing.T) {
	var rated atomic.Bool
	b := &fakeBackend{
		rate: func(id int64, rating int, _ string) error {
			rated.Store(true)
			return nil
		},
		recipe: func(id int64) (api.Recipe, error) {
			r := api.Recipe{ID: id}
			if rated.Load() {
				r.AverageRating = 4
			}
			return r, nil
		},
	}
	s := newStore(t, b)

	require.NoError(t, s.RateRecipe(context.Background(), 3, 4, ""))
	require.NotNil(t, s.CurrentRecipe())
	assert.Equal(t, 4.0, s.CurrentRecipe().AverageRating)
}

func TestLogout_AlwaysClearsState(t *testing.T) {
	b := &fakeBackend{
		rec:    session.Record{Access: "t1", User: `{"id":1}`},
		logout: func() error { return errors.New("disk full") },
	}
	s := newStore(t, b)
	s.Commit(SetFavorites{Favorites: []api.Favorite{{Recipe: api.Recipe{ID: 1}}}})

	assert.Error(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	assert.Empty(t, s.Favorites())
}

func TestLogout_ClearsPreviousError(t *testing.T) {
	s := newStore(t, &fakeBackend{rec: session.Record{Access: "t1", User: `{"id":1}`}})
	s.Commit(SetError{Message: "Failed to fetch recipes"})

	require.NoError(t, s.Logout(context.Background()))
	assert.Empty(t, s.Error())
	assert.False(t, s.IsAuthenticated())
}

func TestHandleSessionExpired(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	b := &fakeBackend{
		rec: session.Record{Access: "t1", User: `{"id":1}`},
		favorites: func() ([]api.Favorite, error) {
			close(started)
			<-release
			return []api.Favorite{{Recipe: api.Recipe{ID: 1}}}, nil
		},
	}
	s := newStore(t, b)

	done := make(chan error, 1)
	go func() { done <- s.FetchFavorites(context.Background()) }()
	<-started

	s.HandleSessionExpired()
	close(release)
	require.NoError(t, <-done)

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Favorites())
	assert.Equal(t, SessionExpiredMessage, s.Error())
}

func TestAction_SessionExpiredMessage(t *testing.T) {
	b := &fakeBackend{deleteFn: func(int64) error {
		return errors.Join(httpclient.ErrSessionExpired, errors.New("token is invalid"))
	}}
	s := newStore(t, b)

	require.ErrorIs(t, s.DeleteRecipe(context.Background(), 1), httpclient.ErrSessionExpired)
	assert.Equal(t, SessionExpiredMessage, s.Error())
}

func TestUpdateAdminUser_UpdatesListing(t *testing.T) {
	b := &fakeBackend{adminUpdate: func(id int64, u api.AdminUserUpdate) (api.User, error) {
		return api.User{ID: id, IsStaff: *u.IsStaff}, nil
	}}
	s := newStore(t, b)
	s.Commit(SetAdminUsers{Users: []api.User{{ID: 2}}})

	staff := true
	_, err := s.UpdateAdminUser(context.Background(), 2, api.AdminUserUpdate{IsStaff: &staff})
	require.NoError(t, err)
	assert.True(t, s.AdminUsers()[0].IsStaff)
}

func TestGettersReturnCopies(t *testing.T) {
	s := newStore(t, &fakeBackend{})
	s.Commit(SetRecipes{Recipes: []api.Recipe{{ID: 1, Title: "a"}}})

	got := s.Recipes()
	got[0].Title = "changed"
	assert.Equal(t, "a", s.Recipes()[0].Title)

	snap := s.Snapshot()
	snap.Recipes[0].Title = "changed"
	assert.Equal(t, "a", s.Snapshot().Recipes[0].Title)
}
