package repositories

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_Rejects_Duplicate_Pair(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	now := time.Now().UTC()

	first := domain.NewConnection("ngo-1", "artisan-1", "Hi", "", now)
	req.NoError(repository.Create(first))

	// When the same NGO asks the same artisan again
	err := repository.Create(domain.NewConnection("ngo-1", "artisan-1", "Hi again", "", now))
	req.ErrorIs(err, errors.ErrDuplicateRequest)

	// Then the reverse direction and other pairs are still allowed
	req.NoError(repository.Create(domain.NewConnection("ngo-1", "artisan-2", "", "", now)))
	req.NoError(repository.Create(domain.NewConnection("ngo-2", "artisan-1", "", "", now)))
}

func Test_Concurrent_Create_Same_Pair_Only_One_Wins(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repository.Create(domain.NewConnection("ngo-1", "artisan-1", "", "", time.Now().UTC()))
			if err == nil {
				created.Add(1)
				return
			}
			req.ErrorIs(err, errors.ErrDuplicateRequest)
		}()
	}
	wg.Wait()

	req.Equal(int32(1), created.Load())
	listed, err := repository.ListByActor(domain.RoleNGO, "ngo-1")
	req.NoError(err)
	req.Len(listed, 1)
}

func Test_Get_Unknown_Connection(t *testing.T) {
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	_, err := repository.Get(uuid.New())
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func Test_Update_Connection(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	conn := domain.NewConnection("ngo-1", "artisan-1", "", "", time.Now().UTC())
	req.NoError(repository.Create(conn))

	updated, err := repository.Update(conn.ID, func(c *domain.Connection) error {
		return c.Accept("artisan-1", time.Now().UTC())
	})
	req.NoError(err)
	req.Equal(domain.ConnectionStatusAccepted, updated.Status)

	// A failing mutation leaves the stored state untouched
	_, err = repository.Update(conn.ID, func(c *domain.Connection) error {
		return c.Reject("artisan-1", time.Now().UTC())
	})
	req.ErrorIs(err, errors.ErrInvalidState)

	fetched, err := repository.Get(conn.ID)
	req.NoError(err)
	req.Equal(domain.ConnectionStatusAccepted, fetched.Status)
}

func Test_Delete_Connection_Frees_Pair_And_Indexes(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	conn := domain.NewConnection("ngo-1", "artisan-1", "", "", time.Now().UTC())
	req.NoError(repository.Create(conn))

	req.NoError(repository.Delete(conn.ID, func(c domain.Connection) error {
		return c.CheckCancel("ngo-1")
	}))

	_, err := repository.Get(conn.ID)
	req.ErrorIs(err, errors.ErrNotFound)
	listed, err := repository.ListByActor(domain.RoleArtisan, "artisan-1")
	req.NoError(err)
	req.Empty(listed)

	// And the pair can be requested again
	req.NoError(repository.Create(domain.NewConnection("ngo-1", "artisan-1", "", "", time.Now().UTC())))
}

func Test_Delete_Guard_Refuses(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	conn := domain.NewConnection("ngo-1", "artisan-1", "", "", time.Now().UTC())
	req.NoError(repository.Create(conn))

	err := repository.Delete(conn.ID, func(c domain.Connection) error {
		return c.CheckCancel("artisan-1")
	})
	req.ErrorIs(err, errors.ErrForbidden)

	_, err = repository.Get(conn.ID)
	req.NoError(err)
}

func Test_ListByActor_Most_Recent_First(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	older := domain.NewConnection("ngo-1", "artisan-1", "", "", at)
	newer := domain.NewConnection("ngo-1", "artisan-2", "", "", at.Add(time.Hour))
	other := domain.NewConnection("ngo-2", "artisan-1", "", "", at.Add(2*time.Hour))
	for _, c := range []domain.Connection{older, newer, other} {
		req.NoError(repository.Create(c))
	}

	byNGO, err := repository.ListByActor(domain.RoleNGO, "ngo-1")
	req.NoError(err)
	req.Len(byNGO, 2)
	req.Equal(newer.ID, byNGO[0].ID)
	req.Equal(older.ID, byNGO[1].ID)

	byArtisan, err := repository.ListByActor(domain.RoleArtisan, "artisan-1")
	req.NoError(err)
	req.Len(byArtisan, 2)
	req.Equal(other.ID, byArtisan[0].ID)
	req.Equal(older.ID, byArtisan[1].ID)
}

func Test_Create_Ids_Holding_Separator_Are_Distinct_Pairs(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	now := time.Now().UTC()

	// Given two different pairs that read the same once joined with ':'
	req.NoError(repository.Create(domain.NewConnection("a:b", "c", "", "", now)))

	// Then the second one is still a new request
	req.NoError(repository.Create(domain.NewConnection("a", "b:c", "", "", now)))
	err := repository.Create(domain.NewConnection("a", "b:c", "", "", now))
	req.ErrorIs(err, errors.ErrDuplicateRequest)
}

func Test_ListByActor_Ignores_Actors_Sharing_A_Prefix(t *testing.T) {
	req := require.New(t)
	repository := NewConnectionRepository(openTestDB(t), slog.Default())
	now := time.Now().UTC()

	mine := domain.NewConnection("ngo", "art", "", "", now)
	theirs := domain.NewConnection("ngo", "art:x", "", "", now.Add(time.Minute))
	req.NoError(repository.Create(mine))
	req.NoError(repository.Create(theirs))

	// When the artisan "art" lists its connections
	listed, err := repository.ListByActor(domain.RoleArtisan, "art")

	// Then the artisan "art:x" does not leak into it
	req.NoError(err)
	req.Len(listed, 1)
	req.Equal(mine.ID, listed[0].ID)

	listed, err = repository.ListByActor(domain.RoleArtisan, "art:x")
	req.NoError(err)
	req.Len(listed, 1)
	req.Equal(theirs.ID, listed[0].ID)
}
