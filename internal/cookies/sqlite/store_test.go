package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mk(domain, path, name, value string) *cookies.Cookie {
	return &cookies.Cookie{Domain: domain, Path: path, Name: name, Value: value, HostOnly: true}
}

func TestSQLitePutAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := mk("example.com", "/", "session", "abc123")
	c.Secure = true
	c.HttpOnly = true
	c.Expires = time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, store.PutCookie(ctx, c))

	got, err := store.FindCookie(ctx, "example.com", "/", "session")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.Value)
	assert.True(t, got.Secure)
	assert.True(t, got.HttpOnly)
	assert.True(t, got.HostOnly)
	assert.True(t, c.Expires.Equal(got.Expires))

	got, err = store.FindCookie(ctx, "example.com", "/", "nope")
	require.NoError(t, err)
	assert.Nil(t, got, "absent cookie is (nil, nil)")
}

func TestSQLitePutUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "a", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "a", "2")))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.FindCookie(ctx, "example.com", "/", "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.Value)
}

func TestSQLitePutAssignsCreationIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("z.com", "/", "first", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("a.com", "/", "second", "2")))
	require.NoError(t, store.PutCookie(ctx, mk("m.com", "/", "third", "3")))

	all, err := store.GetAllCookies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, all[i].Name, "position %d", i)
	}
}

func TestSQLitePutIgnoresMalformedCookie(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("", "/", "a", "1")))
	require.NoError(t, store.PutCookie(ctx, nil))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSQLiteFindCookiesDomainMatching(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "parent", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("www.example.com", "/", "child", "2")))
	require.NoError(t, store.PutCookie(ctx, mk("other.com", "/", "other", "3")))

	got, err := store.FindCookies(ctx, "www.example.com", "/", false)
	require.NoError(t, err)
	assert.Len(t, got, 2, "both the domain and its parent match")

	got, err = store.FindCookies(ctx, "", "/", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteFindCookiesPathMatching(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "root", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/login", "login", "2")))

	got, err := store.FindCookies(ctx, "example.com", "/login", false)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.FindCookies(ctx, "example.com", "/other", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "root", got[0].Name)
}

func TestSQLiteRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "a", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/login", "b", "2")))
	require.NoError(t, store.PutCookie(ctx, mk("other.com", "/", "c", "3")))

	require.NoError(t, store.RemoveCookie(ctx, "example.com", "/", "a"))
	got, err := store.FindCookie(ctx, "example.com", "/", "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.RemoveCookies(ctx, "example.com", ""))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.RemoveAllCookies(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSQLiteRemoveCookiesByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/", "a", "1")))
	require.NoError(t, store.PutCookie(ctx, mk("example.com", "/login", "b", "2")))

	require.NoError(t, store.RemoveCookies(ctx, "example.com", "/login"))

	got, err := store.FindCookie(ctx, "example.com", "/", "a")
	require.NoError(t, err)
	assert.NotNil(t, got)
	got, err = store.FindCookie(ctx, "example.com", "/login", "b")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteClosedStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()
	assert.ErrorIs(t, store.PutCookie(ctx, mk("example.com", "/", "a", "1")), cookies.ErrStoreClosed)
	_, err := store.FindCookie(ctx, "example.com", "/", "a")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)
	_, err = store.GetAllCookies(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	// Double close is fine.
	assert.NoError(t, store.Close())
}
