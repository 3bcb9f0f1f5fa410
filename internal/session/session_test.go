package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/user"
)

// --- Helpers ---

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func adminToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"sub": float64(7), "email": "root@shop.test", "role": "ADMIN", "username": "root"})
}

// --- Identity ---

func TestDecodeIdentity(t *testing.T) {
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := signToken(t, jwt.MapClaims{
		"sub":   "42",
		"email": "mona@shop.test",
		"role":  "STAFF",
		"exp":   exp.Unix(),
	})

	id, err := DecodeIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", id.ID)
	assert.Equal(t, "mona", id.Username, "username falls back to the email local part")
	assert.Equal(t, user.RoleStaff, id.Role)
	assert.True(t, id.ExpiresAt.Equal(exp))
	assert.True(t, id.Expired(exp))
	assert.False(t, id.Expired(exp.Add(-time.Second)))
}

func TestDecodeIdentity_NumericSubject(t *testing.T) {
	id, err := DecodeIdentity(adminToken(t))
	require.NoError(t, err)
	assert.Equal(t, "7", id.ID)
	assert.Equal(t, "root", id.Username)
}

func TestDecodeIdentity_Malformed(t *testing.T) {
	_, err := DecodeIdentity("not-a-token")
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = DecodeIdentity(signToken(t, jwt.MapClaims{"email": "x@y.z"}))
	require.ErrorIs(t, err, ErrMalformedToken)
}

// --- Routes ---

func TestAllowed(t *testing.T) {
	tests := []struct {
		role  user.Role
		route Route
		want  bool
	}{
		{user.RoleAdmin, RouteDashboard, true},
		{user.RoleManager, RouteDashboard, false},
		{user.RoleStaff, RouteUsers, false},
		{user.RoleManager, RouteProducts, true},
		{user.RoleStaff, RouteCategories, false},
		{user.RoleStaff, RouteCustomers, true},
		{user.RoleStaff, RoutePayments, true},
		{user.RoleAdmin, Route("reports"), false},
		{user.Role(""), RouteCustomers, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.route), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.route))
		})
	}
}

func TestLanding(t *testing.T) {
	assert.Equal(t, RouteDashboard, Landing(user.RoleAdmin))
	assert.Equal(t, RouteCustomers, Landing(user.RoleManager))
}

// --- Lifecycle ---

func TestSession_LoginRefreshExpire(t *testing.T) {
	store := &MemoryStore{}
	s, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())

	tok := adminToken(t)
	require.NoError(t, s.Login(Tokens{Access: tok, Refresh: "r1"}))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, "root", s.Identity().Username)

	rt, err := s.BeginRefresh()
	require.NoError(t, err)
	assert.Equal(t, "r1", rt)
	assert.Equal(t, Refreshing, s.State())

	_, err = s.BeginRefresh()
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, Refreshing, te.From)

	require.NoError(t, s.Expire())
	assert.Equal(t, Expired, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Identity())

	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoTokens)
}

func TestSession_CompleteRefreshKeepsOldRefreshToken(t *testing.T) {
	s, err := New(&MemoryStore{})
	require.NoError(t, err)
	require.NoError(t, s.Login(Tokens{Access: adminToken(t), Refresh: "r1"}))

	_, err = s.BeginRefresh()
	require.NoError(t, err)

	fresh := signToken(t, jwt.MapClaims{"sub": "7", "email": "root@shop.test", "role": "ADMIN", "n": 2})
	require.NoError(t, s.CompleteRefresh(Tokens{Access: fresh}))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, fresh, s.Token())

	rt, err := s.BeginRefresh()
	require.NoError(t, err)
	assert.Equal(t, "r1", rt)
}

func TestSession_IllegalTransitions(t *testing.T) {
	s, err := New(&MemoryStore{})
	require.NoError(t, err)

	var te *TransitionError
	require.ErrorAs(t, s.Expire(), &te)
	assert.Equal(t, Anonymous, te.From)
	assert.Equal(t, Expired, te.To)

	require.ErrorAs(t, s.CompleteRefresh(Tokens{Access: adminToken(t)}), &te)
	require.NoError(t, s.Logout())
}

func TestSession_BeginRefreshWithoutRefreshToken(t *testing.T) {
	s, err := New(&MemoryStore{})
	require.NoError(t, err)
	require.NoError(t, s.Login(Tokens{Access: adminToken(t)}))

	_, err = s.BeginRefresh()
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, Authenticated, s.State())
}

func TestSession_RestoresFromStore(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(Tokens{Access: adminToken(t), Refresh: "r"}))

	s, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())

	require.NoError(t, s.Logout())
	assert.Equal(t, Anonymous, s.State())
	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoTokens)
}

func TestSession_UnreadableStoredTokenIsCleared(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(Tokens{Access: "garbage"}))

	s, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, Anonymous, s.State())
	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoTokens)
}

// --- Stores ---

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	_, err := fs.Load()
	require.ErrorIs(t, err, ErrNoTokens)

	require.NoError(t, fs.Save(Tokens{Access: "a", Refresh: "b"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a", Refresh: "b"}, got)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	_, err = fs.Load()
	require.ErrorIs(t, err, ErrNoTokens)
}

func TestStaticToken(t *testing.T) {
	tok := StaticToken("abc")
	assert.Equal(t, "abc", tok.Token())
	_, err := tok.BeginRefresh()
	require.ErrorIs(t, err, ErrNoRefreshToken)
	require.NoError(t, tok.Expire())
}
