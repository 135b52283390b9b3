package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, tenantID uuid.UUID, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, tenant_id, email, name, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestParty(t *testing.T, db *sql.DB, tenantID uuid.UUID, name string, balance int64) *domain.Party {
	t.Helper()

	p := &domain.Party{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           name,
		Phone:          "555-0100",
		PartyType:      domain.PartyTypeCustomer,
		OpeningBalance: decimal.NewFromInt(balance),
		CurrentBalance: decimal.NewFromInt(balance),
		CreatedAt:      time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO parties (id, tenant_id, name, phone, party_type, opening_balance, current_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.Name, p.Phone, p.PartyType, p.OpeningBalance, p.CurrentBalance, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test party %s: %v", name, err)
	}
	return p
}

// SeedTestProduct creates a stock tracked item holding qty units.
func SeedTestProduct(t *testing.T, db *sql.DB, tenantID uuid.UUID, name string, qty int64) *domain.StockRecord {
	t.Helper()

	itemID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO items (id, tenant_id, name, item_kind) VALUES ($1, $2, $3, 'product')`,
		itemID, tenantID, name,
	)
	if err != nil {
		t.Fatalf("seed test item %s: %v", name, err)
	}

	rec := &domain.StockRecord{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ItemID:          itemID,
		ItemName:        name,
		OpeningQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UpdatedAt:       time.Now().UTC(),
	}
	_, err = db.Exec(
		`INSERT INTO stock_records (id, tenant_id, item_id, opening_quantity, current_quantity, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.TenantID, rec.ItemID, rec.OpeningQuantity, rec.CurrentQuantity, rec.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed stock record %s: %v", name, err)
	}
	return rec
}

func SeedTestService(t *testing.T, db *sql.DB, tenantID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO items (id, tenant_id, name, item_kind) VALUES ($1, $2, $3, 'service')`,
		id, tenantID, name,
	)
	if err != nil {
		t.Fatalf("seed test service %s: %v", name, err)
	}
	return id
}

func GetStockQuantity(t *testing.T, db *sql.DB, itemID uuid.UUID) decimal.Decimal {
	t.Helper()

	var qty decimal.Decimal
	err := db.QueryRow(`SELECT current_quantity FROM stock_records WHERE item_id = $1`, itemID).Scan(&qty)
	if err != nil {
		t.Fatalf("get stock quantity %s: %v", itemID, err)
	}
	return qty
}

func GetPartyBalance(t *testing.T, db *sql.DB, partyID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT current_balance FROM parties WHERE id = $1`, partyID).Scan(&balance)
	if err != nil {
		t.Fatalf("get party balance %s: %v", partyID, err)
	}
	return balance
}

func CountMovements(t *testing.T, db *sql.DB, recorderID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_movements WHERE recorder_id = $1`, recorderID).Scan(&count)
	if err != nil {
		t.Fatalf("count movements for %s: %v", recorderID, err)
	}
	return count
}
