//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
)

func TestRepositoryAgainstPostgres(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercisetracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	require.NoError(t, Migrate(ctx, connStr))
	// Applying twice is a no-op.
	require.NoError(t, Migrate(ctx, connStr))

	db, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db)
	svc := domain.NewService(repo)

	person, err := svc.Register(ctx, "integration")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "integration")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	for _, d := range []string{"2020-12-01", "2020-01-01", "2020-06-01"} {
		_, _, err := svc.AppendExercise(ctx, domain.AppendExerciseInput{PersonID: person.ID, Description: d, Duration: "10", Date: d})
		require.NoError(t, err)
	}

	from := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	view, err := svc.GetLog(ctx, person.ID, domain.LogQuery{From: &from})
	require.NoError(t, err)
	require.Equal(t, 2, view.Count)
	require.Equal(t, "2020-06-01", view.Log[0].Description)

	people, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	require.Len(t, people[0].Exercise, 3)
}

func TestConcurrentAppendsAreSerialised(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercisetracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	require.NoError(t, Migrate(ctx, connStr))

	db, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc := domain.NewService(NewRepository(db))
	person, err := svc.Register(ctx, "busy")
	require.NoError(t, err)

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.AppendExercise(ctx, domain.AppendExerciseInput{PersonID: person.ID, Description: "lap", Duration: "1"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := svc.GetLog(ctx, person.ID, domain.LogQuery{})
	require.NoError(t, err)
	require.Equal(t, writers, view.Count)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
