package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftsend/swiftsend/internal/logging"
)

func tempSessionFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestHydrateMissingFileYieldsDefaults(t *testing.T) {
	s := Open(tempSessionFile(t), logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.AwaitHydration(ctx))

	require.False(t, s.IsLoggedIn())
	_, ok := s.CurrentUser()
	require.False(t, ok)

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestHydrateRestoresPersistedSession(t *testing.T) {
	path := tempSessionFile(t)

	first := Open(path, logging.Discard())
	require.NoError(t, first.AwaitHydration(context.Background()))
	first.Login(User{ID: "u1", Name: "Ama Mensah", Email: "ama@example.com"}, "tok-1")

	second := Open(path, logging.Discard())
	require.NoError(t, second.AwaitHydration(context.Background()))

	require.True(t, second.IsLoggedIn())
	u, ok := second.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "Ama Mensah", u.Name)

	tok, err := second.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
}

func TestHydrateCorruptFileStartsFresh(t *testing.T) {
	path := tempSessionFile(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := Open(path, logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))
	require.False(t, s.IsLoggedIn())
}

func TestHydrateNormalizesInconsistentFlag(t *testing.T) {
	// A file claiming isAuthenticated without a token must hydrate signed out.
	path := tempSessionFile(t)
	state := persistedState{User: &User{ID: "u1"}, Token: "", IsAuthenticated: true}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s := Open(path, logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))
	require.False(t, s.IsLoggedIn())
}

func TestTokenBlocksUntilHydration(t *testing.T) {
	path := tempSessionFile(t)
	seed := Open(path, logging.Discard())
	require.NoError(t, seed.AwaitHydration(context.Background()))
	seed.Login(User{ID: "u1"}, "tok-block")

	s := NewStore(path, logging.Discard())

	got := make(chan string, 1)
	go func() {
		tok, err := s.Token(context.Background())
		if err != nil {
			got <- "error: " + err.Error()
			return
		}
		got <- tok
	}()

	select {
	case tok := <-got:
		t.Fatalf("Token returned %q before hydration", tok)
	case <-time.After(50 * time.Millisecond):
	}

	s.Hydrate()

	select {
	case tok := <-got:
		require.Equal(t, "tok-block", tok)
	case <-time.After(time.Second):
		t.Fatal("Token did not return after hydration")
	}
}

func TestAwaitHydrationHonorsContext(t *testing.T) {
	s := NewStore(tempSessionFile(t), logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.AwaitHydration(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitHydrationAfterBarrierResolvesImmediately(t *testing.T) {
	s := NewStore(tempSessionFile(t), logging.Discard())
	s.Hydrate()
	require.True(t, s.HasHydrated())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Even a cancelled context resolves when the barrier is already open.
	require.NoError(t, s.AwaitHydration(ctx))
}

func TestLogoutClearsSessionAndFile(t *testing.T) {
	path := tempSessionFile(t)
	s := Open(path, logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))

	s.Login(User{ID: "u1"}, "tok")
	require.True(t, s.IsLoggedIn())

	s.Logout()
	require.False(t, s.IsLoggedIn())

	reloaded := Open(path, logging.Discard())
	require.NoError(t, reloaded.AwaitHydration(context.Background()))
	require.False(t, reloaded.IsLoggedIn())
}

func TestUpdateUserMergesFields(t *testing.T) {
	s := Open(tempSessionFile(t), logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))
	s.Login(User{ID: "u1", Name: "Ama", SelectedCurrency: "USD"}, "tok")

	done := true
	s.UpdateUser(UserUpdate{DoneOnboarding: &done})

	u, ok := s.CurrentUser()
	require.True(t, ok)
	require.True(t, u.DoneOnboarding)
	require.Equal(t, "Ama", u.Name)
	require.Equal(t, "USD", u.SelectedCurrency)
}

func TestUpdateUserWithoutSessionIsNoop(t *testing.T) {
	s := Open(tempSessionFile(t), logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))

	name := "Nobody"
	s.UpdateUser(UserUpdate{Name: &name})
	_, ok := s.CurrentUser()
	require.False(t, ok)
}

func TestStoreTokenPersists(t *testing.T) {
	path := tempSessionFile(t)
	s := Open(path, logging.Discard())
	require.NoError(t, s.AwaitHydration(context.Background()))
	s.Login(User{ID: "u1"}, "old")

	s.StoreToken("new")

	reloaded := Open(path, logging.Discard())
	require.NoError(t, reloaded.AwaitHydration(context.Background()))
	tok, err := reloaded.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", tok)

	u, ok := reloaded.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "u1", u.ID)
}
