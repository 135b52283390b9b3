package main

import (
	"database/sql"
	"net/http"

	"github.com/josh-kwaku/billing-ledger/api"
	"github.com/josh-kwaku/billing-ledger/internal/config"
	"github.com/josh-kwaku/billing-ledger/internal/handler"
	"github.com/josh-kwaku/billing-ledger/internal/middleware"
	"github.com/josh-kwaku/billing-ledger/internal/repository"
	"github.com/josh-kwaku/billing-ledger/internal/service/document"
	"github.com/josh-kwaku/billing-ledger/internal/service/inventory"
	"github.com/josh-kwaku/billing-ledger/internal/service/ledger"
	"github.com/josh-kwaku/billing-ledger/internal/service/settlement"
)

func newRouter(cfg *config.Config, db *sql.DB, idempotency *repository.IdempotencyRepository) http.Handler {
	docs := repository.NewDocumentRepository(db)
	index := repository.NewDocumentIndexRepository(db)
	seq := repository.NewSequenceRepository(db)
	parties := repository.NewPartyRepository(db)
	stock := repository.NewStockRepository(db)
	users := repository.NewUserRepository(db)
	atomic := repository.NewDB(db)

	movements := repository.NewMovementRepository(db)
	engine := ledger.NewEngine(stock, parties, movements)
	documentSvc := document.NewService(docs, index, seq, parties, engine, atomic)
	inventorySvc := inventory.NewService(stock, engine, atomic)
	settlementSvc := settlement.NewService(docs, index, repository.NewReceiptRepository(db), parties, engine, seq, atomic)

	health := handler.NewHealthHandler(db, version)
	authH := handler.NewAuthHandler(users, cfg.JWTSecret, cfg.JWTExpiry)
	userH := handler.NewUserHandler(users)
	documentH := handler.NewDocumentHandler(documentSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	settlementH := handler.NewSettlementHandler(settlementSvc)
	partyH := handler.NewPartyHandler(parties)
	movementH := handler.NewMovementHandler(movements)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs("/docs/openapi.yaml"))
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.Spec))
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.Idempotency(idempotency, cfg.IdempotencyTTL)(h))
	}

	mux.Handle("GET /api/v1/me", protected(userH.Me))

	mux.Handle("POST /api/v1/documents", protected(documentH.Create))
	mux.Handle("GET /api/v1/documents/{id}", protected(documentH.Get))
	mux.Handle("PUT /api/v1/documents/{id}", protected(documentH.Update))
	mux.Handle("DELETE /api/v1/documents/{id}", protected(documentH.Delete))
	mux.Handle("POST /api/v1/documents/{id}/convert", protected(documentH.Convert))
	mux.Handle("POST /api/v1/documents/{id}/return", protected(documentH.Return))

	mux.Handle("POST /api/v1/inventory/adjust", protected(inventoryH.Adjust))
	mux.Handle("GET /api/v1/inventory/{itemId}", protected(inventoryH.Get))

	mux.Handle("POST /api/v1/payments/in", protected(settlementH.PaymentIn))
	mux.Handle("POST /api/v1/payments/out", protected(settlementH.PaymentOut))
	mux.Handle("GET /api/v1/payments/{id}", protected(settlementH.Get))

	mux.Handle("GET /api/v1/parties/{id}", protected(partyH.Get))
	mux.Handle("GET /api/v1/movements/{recorderId}", protected(movementH.List))

	return middleware.RequestID(middleware.Logging(middleware.Recovery(mux)))
}
