package seed

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mairie/internal/dossier"
	"mairie/internal/store"
	"mairie/internal/week"
	"mairie/pkg/types"
)

func newManager(t *testing.T, now time.Time) *dossier.Manager {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := store.NewDossierStore(store.NewMemoryBackend(), "", logger)
	m := dossier.New(s, logger, dossier.WithClock(func() time.Time { return now }))
	_, err := m.Open(context.Background())
	require.NoError(t, err)
	return m
}

func TestSeedDossiers(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// Monday shortly after midnight, so current-week samples clamp to Monday
	now := time.Date(2024, time.March, 11, 0, 20, 0, 0, paris)
	m := newManager(t, now)

	inserted, archived, err := SeedDossiers(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, len(sampleDossiers), inserted)
	assert.Equal(t, 2, archived)

	for _, d := range m.Dossiers() {
		assert.Equal(t, d.CreatedAt < week.MondayOf(now).UnixMilli(), d.IsArchived, d.ID)
		assert.GreaterOrEqual(t, d.UpdatedAt, d.CreatedAt, d.ID)
		assert.NotEmpty(t, d.FullName(), d.ID)
		assert.NotEmpty(t, d.Object, d.ID)
	}

	// second run inserts nothing
	inserted, archived, err = SeedDossiers(context.Background(), m)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, archived)
	assert.Len(t, m.Dossiers(), len(sampleDossiers))
}

func TestSeedKeepsExistingDossiers(t *testing.T) {
	now := time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	m := newManager(t, now)

	own, err := m.Create(context.Background(), types.DossierFields{
		FirstName: "A", LastName: "B", Email: "a@b.fr", Object: "o", Service: "s", Description: "d",
	})
	require.NoError(t, err)

	_, _, err = SeedDossiers(context.Background(), m)
	require.NoError(t, err)

	got, err := m.Dossier(own.ID)
	require.NoError(t, err)
	assert.Equal(t, own, got)
	assert.Len(t, m.Dossiers(), len(sampleDossiers)+1)
}

func TestFreshIDsSkipsTakenIDs(t *testing.T) {
	candidates := []string{"s33dnouv0001", "existing0001", "fresh0000001", "fresh0000001", "fresh0000002"}
	next := func() string {
		id := candidates[0]
		candidates = candidates[1:]
		return id
	}

	ids := FreshIDs([]types.Dossier{{ID: "existing0001"}}, 2, next)
	assert.Equal(t, []string{"fresh0000001", "fresh0000002"}, ids)
	assert.Empty(t, candidates)
}

func TestFreshIDsDefaultsToNanoID(t *testing.T) {
	ids := FreshIDs(nil, 3, nil)
	require.Len(t, ids, 3)
	for _, id := range ids {
		assert.Len(t, id, 12)
	}
}
