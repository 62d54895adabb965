package generation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/georecon/internal/domain"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
)

type rowsSource []entity.RawRow

func (s rowsSource) Read(_ context.Context, emit func(entity.RawRow) error) error {
	for _, r := range s {
		if err := emit(r); err != nil {
			return err
		}
	}
	return nil
}

var sample = rowsSource{
	{entity.ColID: "1", entity.ColName: "London", entity.ColFeatureClass: "P"},
	{entity.ColID: "2", entity.ColName: "Paris", entity.ColFeatureClass: "P"},
}

type fakePublisher struct {
	published []string
	retired   []string
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, genID string, store *entitystore.Store) (Resolver, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.published = append(p.published, genID)
	return store, nil
}

func (p *fakePublisher) Retire(_ context.Context, genID string) error {
	p.retired = append(p.retired, genID)
	return nil
}

func TestBuild_InMemory(t *testing.T) {
	g, err := Build(context.Background(), sample, BuildOptions{SourceName: "test"})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID())
	assert.Equal(t, "test", g.Source())
	assert.Equal(t, 2, g.Len())
	assert.False(t, g.External())
	assert.Equal(t, 2, g.Stats().Accepted)

	e, err := g.Resolver().GetByID(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Paris", e.PrimaryName())
}

func TestBuild_DistinctIDs(t *testing.T) {
	a, err := Build(context.Background(), sample, BuildOptions{})
	require.NoError(t, err)
	b, err := Build(context.Background(), sample, BuildOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestBuild_WithPublisher(t *testing.T) {
	pub := &fakePublisher{}
	g, err := Build(context.Background(), sample, BuildOptions{Publisher: pub})
	require.NoError(t, err)
	assert.True(t, g.External())
	assert.Equal(t, []string{g.ID()}, pub.published)
}

func TestBuild_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}
	_, err := Build(context.Background(), sample, BuildOptions{Publisher: pub})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestBuild_EmptySource(t *testing.T) {
	_, err := Build(context.Background(), rowsSource{}, BuildOptions{})
	assert.ErrorIs(t, err, domain.ErrNoEntities)
}

func TestHolder_Swap(t *testing.T) {
	h := NewHolder(nil)
	assert.Nil(t, h.Current())

	g1, err := Build(context.Background(), sample, BuildOptions{})
	require.NoError(t, err)
	g2, err := Build(context.Background(), sample, BuildOptions{})
	require.NoError(t, err)

	assert.Nil(t, h.Swap(g1))
	assert.Same(t, g1, h.Current())
	assert.Same(t, g1, h.Swap(g2))
	assert.Same(t, g2, h.Current())
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	g, err := Build(context.Background(), sample, BuildOptions{})
	require.NoError(t, err)
	h := NewHolder(g)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NotNil(t, h.Current())
			}
		}()
		go func() {
			defer wg.Done()
			h.Swap(g)
		}()
	}
	wg.Wait()
}
