package bank

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/agbado/agbado/internal/gateway"
)

type stubLister struct {
	banks []gateway.Bank
	calls int
	err   error
}

func (s *stubLister) ListBanks(ctx context.Context) ([]gateway.Bank, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.banks, nil
}

func newCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func directoryFixture() []gateway.Bank {
	return []gateway.Bank{
		{Name: "Guaranty Trust Bank", Code: "058", Slug: "gtbank"},
		{Name: "Access Bank", Code: "044", Slug: "access-bank"},
	}
}

func TestRefreshPersistsAndCaches(t *testing.T) {
	lister := &stubLister{banks: directoryFixture()}
	svc := NewService(NewMemoryRepository(), newCache(t), lister, nil, time.Hour)
	ctx := context.Background()

	banks, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 2)

	// Subsequent lists come from the cache, not the gateway.
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, 1, lister.calls)
}

func TestListFallsBackToGatewayWhenEmpty(t *testing.T) {
	lister := &stubLister{banks: directoryFixture()}
	svc := NewService(NewMemoryRepository(), newCache(t), lister, nil, time.Hour)

	banks, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)
	require.Equal(t, 1, lister.calls)
}

func TestListServesFromRepositoryWithoutGateway(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Upsert(context.Background(), []Bank{{Code: "058", Name: "Guaranty Trust Bank"}}))

	lister := &stubLister{banks: directoryFixture()}
	svc := NewService(repo, newCache(t), lister, nil, time.Hour)

	banks, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 1)
	require.Zero(t, lister.calls)
}

func TestValidate(t *testing.T) {
	lister := &stubLister{banks: directoryFixture()}
	svc := NewService(NewMemoryRepository(), newCache(t), lister, nil, time.Hour)
	ctx := context.Background()

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Validate(ctx, "058"))
	require.ErrorIs(t, svc.Validate(ctx, "999"), ErrUnknownCode)
}

func TestRefreshDeactivatesMissingCodes(t *testing.T) {
	lister := &stubLister{banks: directoryFixture()}
	svc := NewService(NewMemoryRepository(), newCache(t), lister, nil, time.Hour)
	ctx := context.Background()

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	lister.banks = directoryFixture()[:1]
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Validate(ctx, "058"))
	require.ErrorIs(t, svc.Validate(ctx, "044"), ErrUnknownCode)
}
