package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/billing-ledger/internal/migrate"
	"github.com/josh-kwaku/billing-ledger/internal/testutil"
)

func TestUp_SkipsAppliedVersions(t *testing.T) {
	db := testutil.SetupTestDB(t)

	applied, err := migrate.Up(context.Background(), db, migrate.FindDir())
	require.NoError(t, err)
	assert.Empty(t, applied)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}
