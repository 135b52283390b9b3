package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/repository"
	"github.com/josh-kwaku/billing-ledger/internal/testutil"
)

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	tenant, user := uuid.New(), uuid.New()
	now := time.Now().UTC()

	entry := &repository.IdempotencyCacheEntry{
		Key:          "key-1",
		TenantID:     tenant,
		UserID:       user,
		RequestHash:  "hash-a",
		StatusCode:   201,
		ResponseBody: []byte(`{"success":true}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, repo.Set(ctx, entry))

	t.Run("first write wins", func(t *testing.T) {
		second := *entry
		second.RequestHash = "hash-b"
		require.NoError(t, repo.Set(ctx, &second))

		got, err := repo.Get(ctx, "key-1", tenant, user)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "hash-a", got.RequestHash)
		assert.Equal(t, 201, got.StatusCode)
	})

	t.Run("scoped to tenant and user", func(t *testing.T) {
		got, err := repo.Get(ctx, "key-1", uuid.New(), user)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.Get(ctx, "key-1", tenant, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries are hidden and swept", func(t *testing.T) {
		for i := range 3 {
			require.NoError(t, repo.Set(ctx, &repository.IdempotencyCacheEntry{
				Key:          uuid.NewString(),
				TenantID:     tenant,
				UserID:       user,
				RequestHash:  "h",
				StatusCode:   200,
				ResponseBody: []byte(`{}`),
				CreatedAt:    now.Add(-2 * time.Hour),
				ExpiresAt:    now.Add(-time.Duration(i+1) * time.Minute),
			}))
		}

		n, err := repo.DeleteExpired(ctx, now, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.DeleteExpired(ctx, now, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.Get(ctx, "key-1", tenant, user)
		require.NoError(t, err)
		assert.NotNil(t, got, "live entry must survive the sweep")
	})
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	existing := testutil.SeedTestUser(t, db, uuid.New(), "ops@example.com", "Ops")

	got, err := repo.GetByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, existing.TenantID, got.TenantID)

	err = repo.Create(ctx, &domain.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "ops@example.com",
		Name:         "Dup",
		PasswordHash: "x",
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSequenceRepository_PerSeries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSequenceRepository(db)
	atomic := repository.NewDB(db)
	ctx := context.Background()
	tenant := uuid.New()

	next := func(series string) int64 {
		var n int64
		require.NoError(t, atomic.RunAtomic(ctx, func(tx *sql.Tx) error {
			var err error
			n, err = repo.Next(ctx, tx, tenant, series)
			return err
		}))
		return n
	}

	assert.Equal(t, int64(1), next("INV"))
	assert.Equal(t, int64(2), next("INV"))
	assert.Equal(t, int64(1), next("ORD"))

	cur, err := repo.Current(ctx, tenant, "INV")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cur)

	cur, err = repo.Current(ctx, uuid.New(), "INV")
	require.NoError(t, err)
	assert.Zero(t, cur)
}

func TestRunAtomic_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSequenceRepository(db)
	ctx := context.Background()
	tenant := uuid.New()

	err := repository.NewDB(db).RunAtomic(ctx, func(tx *sql.Tx) error {
		if _, err := repo.Next(ctx, tx, tenant, "INV"); err != nil {
			return err
		}
		return domain.ErrInvalidRequest
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	cur, err := repo.Current(ctx, tenant, "INV")
	require.NoError(t, err)
	assert.Zero(t, cur, "a failed transaction must not consume a number")
}

func TestListDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	tenant := uuid.New()

	party := testutil.SeedTestParty(t, db, tenant, "Acme", 100)
	testutil.SeedTestParty(t, db, tenant, "Clean", 50)
	stock := testutil.SeedTestProduct(t, db, tenant, "Widget", 10)

	_, err := db.Exec(`UPDATE parties SET current_balance = current_balance + 5 WHERE id = $1`, party.ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE stock_records SET current_quantity = current_quantity - 1 WHERE id = $1`, stock.ID)
	require.NoError(t, err)

	balances, err := repository.NewPartyRepository(db).ListDrift(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, party.ID, balances[0].TargetID)
	assert.Equal(t, domain.LedgerBalance, balances[0].Ledger)
	assert.True(t, balances[0].Current.Equal(decimal.NewFromInt(105)))
	assert.True(t, balances[0].Expected.Equal(decimal.NewFromInt(100)))

	stocks, err := repository.NewStockRepository(db).ListDrift(ctx)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, stock.ID, stocks[0].TargetID)
	assert.True(t, stocks[0].Expected.Equal(decimal.NewFromInt(10)))
}
