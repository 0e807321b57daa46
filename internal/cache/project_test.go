package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/model"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewWithClient(client, time.Minute), mr
}

func sampleProject() *model.Project {
	link := "https://github.com/alice/folio"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Project{
		ID:           "01HZY3Q7J8K9M0N1P2Q3R4S5T6",
		OwnerID:      "user-1",
		Name:         "Folio",
		Technologies: []string{"go"},
		GithubLink:   &link,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCache_ProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	project := sampleProject()
	require.NoError(t, c.SetProject(ctx, project))

	got, err := c.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, got.Name)
	assert.Equal(t, *project.GithubLink, *got.GithubLink)
	assert.True(t, project.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.DeletedAt)

	assert.Equal(t, time.Minute, mr.TTL(projectKeyPrefix+project.ID))
}

func TestCache_ProjectExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	project := sampleProject()
	require.NoError(t, c.SetProject(ctx, project))

	mr.FastForward(2 * time.Minute)

	_, err := c.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_DeleteProject(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	project := sampleProject()
	require.NoError(t, c.SetProject(ctx, project))
	require.NoError(t, c.SetNegativeCache(ctx, project.ID))

	require.NoError(t, c.DeleteProject(ctx, project.ID))

	_, err := c.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
	neg, err := c.IsNegativelyCached(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, neg)
}

func TestCache_NegativeCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	neg, err := c.IsNegativelyCached(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, neg)

	require.NoError(t, c.SetNegativeCache(ctx, "gone"))
	neg, err = c.IsNegativelyCached(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, neg)

	mr.FastForward(NegativeCacheTTL + time.Second)
	neg, err = c.IsNegativelyCached(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, neg)
}

func TestCache_SetProjectClearsNegative(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	project := sampleProject()
	require.NoError(t, c.SetNegativeCache(ctx, project.ID))
	require.NoError(t, c.SetProject(ctx, project))

	neg, err := c.IsNegativelyCached(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, neg)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set(projectKeyPrefix+"bad", "{not json"))

	_, err := c.GetProject(ctx, "bad")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists(projectKeyPrefix+"bad"))
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	c := NewWithClient(nil, 0)
	assert.Equal(t, DefaultProjectTTL, c.projectTTL)
}
