package migration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/database"
)

func TestUpAndDownOnSQLite(t *testing.T) {
	sqldb, err := sql.Open("sqlite", "file:migrator_test?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	mig, err := New(cfg, &database.Connections{Writer: db, Reader: db}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, mig.Up(ctx))
	require.NoError(t, mig.Up(ctx))

	version, err := mig.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = db.ExecContext(ctx, "INSERT INTO order_transitions (event_id, order_id, order_kind, status_id, status, employee_id, occurred_at) VALUES ('e', 1, 'production', 2, 'in progress', 9, CURRENT_TIMESTAMP)")
	require.NoError(t, err)

	require.NoError(t, mig.Down(ctx, 1, false))
	version, err = mig.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestEveryDialectHasMigrations(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		dialect, err := gooseDialect(driver)
		require.NoError(t, err)

		entries, err := migrations.ReadDir("sql/" + dialect)
		require.NoError(t, err, driver)
		assert.NotEmpty(t, entries, driver)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}
