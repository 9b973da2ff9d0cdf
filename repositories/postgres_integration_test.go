package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Dosada05/league-system/db"
	"github.com/Dosada05/league-system/models"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres поднимает одноразовый postgres и применяет миграции.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("league"),
		postgres.WithUsername("league"),
		postgres.WithPassword("league"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if ctr != nil {
		t.Cleanup(func() {
			_ = ctr.Terminate(context.Background())
		})
	}
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Connect(dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.MigrateUp(conn))
	return conn
}

func TestPostgresRepositories(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	teams := NewPostgresTeamRepository(conn)
	matches := NewPostgresMatchRepository(conn)
	users := NewPostgresUserRepository(conn)
	stats := NewPostgresStatisticsRepository(conn)
	tx := NewSQLTransactor(conn)

	alpha := &models.Team{Name: "Alpha"}
	bravo := &models.Team{Name: "Bravo"}
	require.NoError(t, teams.Create(ctx, nil, alpha))
	require.NoError(t, teams.Create(ctx, nil, bravo))

	t.Run("team name is unique", func(t *testing.T) {
		err := teams.Create(ctx, nil, &models.Team{Name: "Alpha"})
		assert.ErrorIs(t, err, ErrTeamNameConflict)
	})

	t.Run("user membership", func(t *testing.T) {
		u := &models.User{FirstName: "Ann", Nickname: "ann", Email: "ann@example.com", PasswordHash: "x", Role: models.RolePlayer}
		require.NoError(t, users.Create(ctx, u))
		require.NoError(t, users.SetTeam(ctx, u.ID, &alpha.ID))

		loaded, err := teams.GetByID(ctx, nil, alpha.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{u.ID}, loaded.MemberIDs)

		dup := &models.User{FirstName: "Ann", Nickname: "ann2", Email: "ann@example.com", PasswordHash: "x", Role: models.RolePlayer}
		assert.ErrorIs(t, users.Create(ctx, dup), ErrUserEmailConflict)

		missing := 9999
		assert.ErrorIs(t, users.SetTeam(ctx, u.ID, &missing), ErrUserTeamInvalid)
	})

	t.Run("matches", func(t *testing.T) {
		m := &models.Match{Team1ID: alpha.ID, Team2ID: bravo.ID, MatchDate: time.Now().UTC(), Status: models.MatchStatusPending}
		require.NoError(t, matches.Create(ctx, nil, m))
		assert.NotZero(t, m.ID)

		same := &models.Match{Team1ID: alpha.ID, Team2ID: alpha.ID, MatchDate: time.Now().UTC(), Status: models.MatchStatusPending}
		assert.ErrorIs(t, matches.Create(ctx, nil, same), ErrMatchSameTeams)

		status := models.MatchStatusPending
		list, err := matches.List(ctx, nil, MatchFilter{Status: &status, TeamID: &bravo.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, m.ID, list[0].ID)

		_, err = matches.GetByID(ctx, nil, 9999)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("aggregates inside transaction", func(t *testing.T) {
		err := tx.WithinTx(ctx, func(exec SQLExecutor) error {
			locked, err := teams.GetByIDForUpdate(ctx, exec, bravo.ID)
			if err != nil {
				return err
			}
			return teams.UpdateAggregates(ctx, exec, locked.ID, locked.Points+3, locked.MatchesPlayed+1)
		})
		require.NoError(t, err)

		standings, err := teams.ListStandings(ctx, nil)
		require.NoError(t, err)
		require.Len(t, standings, 2)
		assert.Equal(t, "Bravo", standings[0].Name)
		assert.Equal(t, 3, standings[0].Points)
		assert.Equal(t, 1, standings[0].MatchesPlayed)
	})

	t.Run("rollback discards aggregates", func(t *testing.T) {
		err := tx.WithinTx(ctx, func(exec SQLExecutor) error {
			if err := teams.UpdateAggregates(ctx, exec, alpha.ID, 100, 10); err != nil {
				return err
			}
			return ErrTeamNotFound
		})
		assert.ErrorIs(t, err, ErrTeamNotFound)

		loaded, err := teams.GetByID(ctx, nil, alpha.ID)
		require.NoError(t, err)
		assert.Zero(t, loaded.Points)
	})

	t.Run("statistics upsert", func(t *testing.T) {
		u := fakeUser()
		require.NoError(t, users.Create(ctx, u))

		require.NoError(t, stats.Upsert(ctx, &models.Statistics{UserID: u.ID, Goals: 1}))
		require.NoError(t, stats.Upsert(ctx, &models.Statistics{UserID: u.ID, Goals: 4, Assists: 2}))

		got, err := stats.GetByUserID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Goals)
		assert.Equal(t, 2, got.Assists)

		assert.ErrorIs(t, stats.Upsert(ctx, &models.Statistics{UserID: 9999}), ErrStatisticsUserInvalid)
		require.NoError(t, stats.DeleteByUserID(ctx, u.ID))
		assert.ErrorIs(t, stats.DeleteByUserID(ctx, u.ID), ErrStatisticsNotFound)
	})

	t.Run("team delete keeps matches", func(t *testing.T) {
		require.NoError(t, teams.Delete(ctx, nil, alpha.ID))
		assert.ErrorIs(t, teams.Delete(ctx, nil, alpha.ID), ErrTeamNotFound)

		list, err := matches.List(ctx, nil, MatchFilter{TeamID: &alpha.ID})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func fakeUser() *models.User {
	return &models.User{
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Nickname:     gofakeit.Username() + gofakeit.DigitN(4),
		Email:        gofakeit.Email(),
		PasswordHash: gofakeit.Password(true, true, true, false, false, 16),
		Role:         models.RolePlayer,
	}
}
