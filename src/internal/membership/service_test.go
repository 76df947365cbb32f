package membership

import (
	"context"
	"strings"
	"testing"

	"carecircle-activity-svc/src/internal/cache"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	members map[string]bool
	lookups int
	err     error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{members: map[string]bool{}}
}

func fakeKey(group, member string) string {
	return strings.ToLower(group) + "/" + strings.ToLower(member)
}

func (f *fakeRepository) IsMember(_ context.Context, group, member string) (bool, error) {
	f.lookups++
	if f.err != nil {
		return false, f.err
	}
	return f.members[fakeKey(group, member)], nil
}

func (f *fakeRepository) Join(_ context.Context, group, member string) error {
	if f.err != nil {
		return f.err
	}
	f.members[fakeKey(group, member)] = true
	return nil
}

func (f *fakeRepository) Leave(_ context.Context, group, member string) error {
	if f.err != nil {
		return f.err
	}
	f.members[fakeKey(group, member)] = false
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Configuration{Cache: config.CacheConfig{MembershipExpirationMinutes: 10}}
	repo := newFakeRepository()
	return NewMembershipService(repo, cache.NewCacheService(client, cfg)), repo
}

func TestMembership_ReadThroughCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.members[fakeKey("0xG", "0xM")] = true

	ok, err := svc.IsMember(ctx, "0xG", "0xM")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsMember(ctx, "0xG", "0xM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, repo.lookups)
}

func TestMembership_JoinAndLeaveRefreshCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	ok, err := svc.IsMember(ctx, "0xG", "0xM")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Join(ctx, "0xG", "0xM"))
	ok, err = svc.IsMember(ctx, "0xG", "0xM")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Leave(ctx, "0xG", "0xM"))
	ok, err = svc.IsMember(ctx, "0xG", "0xM")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.lookups)
}

func TestMembership_EmptyAddressesAreNotMembers(t *testing.T) {
	svc, repo := newTestService(t)

	ok, err := svc.IsMember(context.Background(), "", "0xM")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, repo.lookups)
}

func TestMembership_RepositoryError(t *testing.T) {
	svc, repo := newTestService(t)
	repo.err = models.ErrDatabaseQuery

	_, err := svc.IsMember(context.Background(), "0xG", "0xM")
	assert.ErrorIs(t, err, models.ErrDatabaseQuery)
	assert.ErrorIs(t, svc.Join(context.Background(), "0xG", "0xM"), models.ErrDatabaseQuery)
}
