package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheuskafuri/newsdesk/internal/kv"
)

// recordingKV wraps kv.Memory, counts writes and can fail on demand.
type recordingKV struct {
	*kv.Memory
	writes    int
	getErr    error
	setErr    map[string]error
	removeErr error
}

func newRecordingKV() *recordingKV {
	return &recordingKV{Memory: kv.NewMemory(), setErr: map[string]error{}}
}

func (r *recordingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if r.getErr != nil {
		return "", false, r.getErr
	}
	return r.Memory.Get(ctx, key)
}

func (r *recordingKV) Set(ctx context.Context, key, value string) error {
	r.writes++
	if err := r.setErr[key]; err != nil {
		return err
	}
	return r.Memory.Set(ctx, key, value)
}

func (r *recordingKV) Remove(ctx context.Context, key string) error {
	r.writes++
	if r.removeErr != nil {
		return r.removeErr
	}
	return r.Memory.Remove(ctx, key)
}

// gatedKV blocks gated operations until release is closed and signals
// entered when one starts.
type gatedKV struct {
	*kv.Memory
	gateGets bool
	gateSets bool
	entered  chan struct{}
	release  chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{
		Memory:  kv.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gatedKV) wait(ctx context.Context) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if g.gateGets {
		if err := g.wait(ctx); err != nil {
			return "", false, err
		}
	}
	return g.Memory.Get(ctx, key)
}

func (g *gatedKV) Set(ctx context.Context, key, value string) error {
	if g.gateSets {
		if err := g.wait(ctx); err != nil {
			return err
		}
	}
	return g.Memory.Set(ctx, key, value)
}

func seed(t *testing.T, store kv.Store, user, flag string) {
	t.Helper()
	ctx := context.Background()
	if user != "" {
		require.NoError(t, store.Set(ctx, UserKey, user))
	}
	if flag != "" {
		require.NoError(t, store.Set(ctx, AuthenticatedKey, flag))
	}
}

func TestInitialStateUnknown(t *testing.T) {
	s := NewStore(kv.NewMemory())
	st := s.State()
	assert.Equal(t, StatusUnknown, st.Status)
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.User)
}

func TestLoginSuccess(t *testing.T) {
	store := newRecordingKV()
	s := NewStore(store)

	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	st := s.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.True(t, st.Authenticated())
	assert.False(t, st.Loading)
	require.NotNil(t, st.User)
	assert.Equal(t, User{ID: "1", Email: "user@mail.com", Name: "User"}, *st.User)

	ctx := context.Background()
	raw, found, err := store.Memory.Get(ctx, UserKey)
	require.NoError(t, err)
	require.True(t, found)
	var persisted User
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, *st.User, persisted)

	flag, found, err := store.Memory.Get(ctx, AuthenticatedKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", flag)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newRecordingKV()
	s := NewStore(store)

	err := s.Login(context.Background(), "user@mail.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	st := s.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Nil(t, st.User)
	assert.Zero(t, store.writes)
	assert.Zero(t, store.Len())
}

func TestLoginRequiresExactEmail(t *testing.T) {
	s := NewStore(kv.NewMemory())
	for _, email := range []string{"USER@mail.com", " user@mail.com", "other@mail.com", ""} {
		assert.ErrorIs(t, s.Login(context.Background(), email, "user123456"), ErrInvalidCredentials, email)
	}
}

func TestLoginPersistFailure(t *testing.T) {
	store := newRecordingKV()
	store.setErr[AuthenticatedKey] = errors.New("disk full")
	s := NewStore(store)

	err := s.Login(context.Background(), "user@mail.com", "user123456")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, StatusUnauthenticated, s.State().Status)
	_, found, _ := store.Memory.Get(context.Background(), UserKey)
	assert.False(t, found, "partial session rolled back")
}

func TestLoginWithCustomCredentials(t *testing.T) {
	creds, err := NewCredentials("admin@example.com", "hunter22")
	require.NoError(t, err)
	s := NewStore(kv.NewMemory(), WithCredentials(creds))

	assert.ErrorIs(t, s.Login(context.Background(), "user@mail.com", "user123456"), ErrInvalidCredentials)
	require.NoError(t, s.Login(context.Background(), "admin@example.com", "hunter22"))
	assert.Equal(t, "admin@example.com", s.State().User.Email)
}

func TestCheckAuthRestoresSession(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, `{"id":"1","email":"user@mail.com","name":"Jane"}`, "true")
	s := NewStore(store)

	st := s.CheckAuth(context.Background())
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.False(t, st.Loading)
	assert.Equal(t, &User{ID: "1", Email: "user@mail.com", Name: "Jane"}, st.User)
}

func TestCheckAuthUnauthenticated(t *testing.T) {
	tests := []struct {
		name string
		user string
		flag string
	}{
		{"empty storage", "", ""},
		{"user only", `{"id":"1","email":"user@mail.com"}`, ""},
		{"flag only", "", "true"},
		{"flag not literal true", `{"id":"1","email":"user@mail.com"}`, "TRUE"},
		{"flag false", `{"id":"1","email":"user@mail.com"}`, "false"},
		{"corrupt user", `{"id":`, "true"},
		{"null user", `null`, "true"},
		{"empty user object", `{}`, "true"},
		{"user without email", `{"id":"1"}`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemory()
			seed(t, store, tt.user, tt.flag)
			st := NewStore(store).CheckAuth(context.Background())
			assert.Equal(t, StatusUnauthenticated, st.Status)
			assert.Nil(t, st.User)
			assert.False(t, st.Loading)
		})
	}
}

func TestCheckAuthLoadingWhileInFlight(t *testing.T) {
	store := newGatedKV()
	seed(t, store.Memory, `{"id":"1","email":"user@mail.com","name":"User"}`, "true")
	store.gateGets = true
	s := NewStore(store)

	done := make(chan State, 1)
	go func() { done <- s.CheckAuth(context.Background()) }()

	<-store.entered
	assert.True(t, s.State().Loading)
	assert.Equal(t, StatusUnknown, s.State().Status)

	close(store.release)
	st := <-done
	assert.False(t, st.Loading)
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.False(t, s.State().Loading)
}

func TestLoginLoadingWhileInFlight(t *testing.T) {
	store := newGatedKV()
	store.gateSets = true
	s := NewStore(store)

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "user@mail.com", "user123456") }()

	<-store.entered
	assert.True(t, s.State().Loading)

	close(store.release)
	require.NoError(t, <-done)
	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, StatusAuthenticated, st.Status)
}

func TestUpdateProfileLoadingWhileInFlight(t *testing.T) {
	store := newGatedKV()
	seed(t, store.Memory, `{"id":"1","email":"user@mail.com","name":"User"}`, "true")
	s := NewStore(store)
	require.True(t, s.CheckAuth(context.Background()).Authenticated())

	store.gateSets = true
	done := make(chan error, 1)
	go func() { done <- s.UpdateProfile(context.Background(), "Jane") }()

	<-store.entered
	st := s.State()
	assert.True(t, st.Loading)
	assert.Equal(t, "User", st.User.Name)

	close(store.release)
	require.NoError(t, <-done)
	st = s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Jane", st.User.Name)
}

func TestCheckAuthReadFailure(t *testing.T) {
	store := newRecordingKV()
	store.getErr = errors.New("locked")

	st := NewStore(store).CheckAuth(context.Background())
	assert.Equal(t, StatusUnauthenticated, st.Status)
}

func TestLogout(t *testing.T) {
	store := kv.NewMemory()
	s := NewStore(store)
	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	s.Logout(context.Background())

	st := s.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Nil(t, st.User)
	assert.Zero(t, store.Len())
	assert.Equal(t, StatusUnauthenticated, NewStore(store).CheckAuth(context.Background()).Status)
}

func TestLogoutSurvivesStorageFailure(t *testing.T) {
	store := newRecordingKV()
	s := NewStore(store)
	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	store.removeErr = errors.New("read-only filesystem")
	s.Logout(context.Background())

	st := s.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.Nil(t, st.User)
	assert.False(t, st.Loading)
}

func TestUpdateProfile(t *testing.T) {
	store := kv.NewMemory()
	s := NewStore(store)
	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	require.NoError(t, s.UpdateProfile(context.Background(), "  Jane Doe \n"))

	st := s.State()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Equal(t, User{ID: "1", Email: "user@mail.com", Name: "Jane Doe"}, *st.User)

	restored := NewStore(store).CheckAuth(context.Background())
	assert.Equal(t, "Jane Doe", restored.User.Name)
}

func TestUpdateProfileWithoutUser(t *testing.T) {
	store := newRecordingKV()
	s := NewStore(store)
	s.CheckAuth(context.Background())

	err := s.UpdateProfile(context.Background(), "Jane")
	require.ErrorIs(t, err, ErrNoUser)
	assert.Zero(t, store.writes)
	assert.Equal(t, StatusUnauthenticated, s.State().Status)
}

func TestUpdateProfileBeforeCheckAuth(t *testing.T) {
	assert.ErrorIs(t, NewStore(kv.NewMemory()).UpdateProfile(context.Background(), "Jane"), ErrNoUser)
}

func TestUpdateProfilePersistFailureKeepsUser(t *testing.T) {
	store := newRecordingKV()
	s := NewStore(store)
	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	store.setErr[UserKey] = errors.New("disk full")
	require.Error(t, s.UpdateProfile(context.Background(), "Jane"))
	assert.Equal(t, "User", s.State().User.Name)
}

func TestStateReturnsCopy(t *testing.T) {
	s := NewStore(kv.NewMemory())
	require.NoError(t, s.Login(context.Background(), "user@mail.com", "user123456"))

	st := s.State()
	st.User.Name = "mutated"
	assert.Equal(t, "User", s.State().User.Name)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "unauthenticated", StatusUnauthenticated.String())
	assert.Equal(t, "authenticated", StatusAuthenticated.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

func TestCredentialsMatch(t *testing.T) {
	c := DefaultCredentials()
	assert.True(t, c.Match("user@mail.com", "user123456"))
	assert.False(t, c.Match("user@mail.com", "user1234567"))
	assert.False(t, c.Match("user@mail.com", ""))
	assert.False(t, Credentials{}.Match("", ""))
	assert.Equal(t, User{ID: "1", Email: "user@mail.com", Name: "User"}, c.User())
}
