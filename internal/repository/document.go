package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

// Each variant has its own store. The layouts are identical so one
// repository serves all of them, selecting the table from the kind.
var storeTables = map[domain.Kind]string{
	domain.KindSaleOrder:       "sale_orders",
	domain.KindProforma:        "proformas",
	domain.KindEstimate:        "estimates",
	domain.KindSaleInvoice:     "sale_invoices",
	domain.KindDeliveryChallan: "delivery_challans",
	domain.KindCreditNote:      "credit_notes",
	domain.KindPurchaseOrder:   "purchase_orders",
	domain.KindPurchaseBill:    "purchase_bills",
	domain.KindDebitNote:       "debit_notes",
}

const documentColumns = `id, tenant_id, number, doc_date, due_date,
	party_id, party_name, party_phone, state_of_supply, description, lines,
	sub_total, total_discount, total_tax, round_off, grand_total,
	payment_type, amount_settled, amount_allocated, balance_due, is_paid, status,
	converted_from_id, converted_from_kind, converted_to_id, converted_to_kind,
	is_return, original_document_id, stock_applied_upstream, created_at, updated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func tableFor(kind domain.Kind) (string, error) {
	t, ok := storeTables[kind]
	if !ok {
		return "", fmt.Errorf("tableFor: %q: %w", kind, domain.ErrInvalidDocumentType)
	}
	return t, nil
}

func (r *DocumentRepository) Insert(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	table, err := tableFor(doc.Kind)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	lines, err := json.Marshal(doc.Lines)
	if err != nil {
		return fmt.Errorf("Insert: encode lines: %w", err)
	}

	fromID, fromKind := refColumns(doc.Linkage.ConvertedFrom)
	toID, toKind := refColumns(doc.Linkage.ConvertedTo)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+table+` (`+documentColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31
		)`,
		doc.ID, doc.TenantID, doc.Number, doc.Date, doc.DueDate,
		doc.Party.ID, doc.Party.Name, doc.Party.Phone, doc.StateOfSupply, doc.Description, lines,
		doc.Totals.SubTotal, doc.Totals.TotalDiscount, doc.Totals.TotalTax, doc.Totals.RoundOff, doc.Totals.GrandTotal,
		doc.Payment.Type, doc.Payment.Settled, doc.Payment.Allocated, doc.Payment.BalanceDue, doc.Payment.IsPaid, doc.Status,
		fromID, fromKind, toID, toKind,
		doc.Linkage.IsReturn, doc.Linkage.OriginalDocumentID, doc.StockAppliedUpstream, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, kind domain.Kind, tenantID, id uuid.UUID) (*domain.Document, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM `+table+` WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	doc, err := scanDocument(row, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, kind domain.Kind, tenantID, id uuid.UUID) (*domain.Document, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	row := tx.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM `+table+` WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		id, tenantID,
	)
	doc, err := scanDocument(row, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	table, err := tableFor(doc.Kind)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	lines, err := json.Marshal(doc.Lines)
	if err != nil {
		return fmt.Errorf("Update: encode lines: %w", err)
	}

	fromID, fromKind := refColumns(doc.Linkage.ConvertedFrom)
	toID, toKind := refColumns(doc.Linkage.ConvertedTo)

	res, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET
			number = $3, doc_date = $4, due_date = $5,
			party_id = $6, party_name = $7, party_phone = $8, state_of_supply = $9, description = $10, lines = $11,
			sub_total = $12, total_discount = $13, total_tax = $14, round_off = $15, grand_total = $16,
			payment_type = $17, amount_settled = $18, amount_allocated = $19, balance_due = $20, is_paid = $21, status = $22,
			converted_from_id = $23, converted_from_kind = $24, converted_to_id = $25, converted_to_kind = $26,
			is_return = $27, original_document_id = $28, stock_applied_upstream = $29, updated_at = $30
		WHERE id = $1 AND tenant_id = $2`,
		doc.ID, doc.TenantID, doc.Number, doc.Date, doc.DueDate,
		doc.Party.ID, doc.Party.Name, doc.Party.Phone, doc.StateOfSupply, doc.Description, lines,
		doc.Totals.SubTotal, doc.Totals.TotalDiscount, doc.Totals.TotalTax, doc.Totals.RoundOff, doc.Totals.GrandTotal,
		doc.Payment.Type, doc.Payment.Settled, doc.Payment.Allocated, doc.Payment.BalanceDue, doc.Payment.IsPaid, doc.Status,
		fromID, fromKind, toID, toKind,
		doc.Linkage.IsReturn, doc.Linkage.OriginalDocumentID, doc.StockAppliedUpstream, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireOneRow(res, "Update")
}

func (r *DocumentRepository) Delete(ctx context.Context, tx *sql.Tx, kind domain.Kind, tenantID, id uuid.UUID) error {
	table, err := tableFor(kind)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireOneRow(res, "Delete")
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func refColumns(ref *domain.DocRef) (*uuid.UUID, *string) {
	if ref == nil {
		return nil, nil
	}
	id := ref.ID
	kind := string(ref.Kind)
	return &id, &kind
}

func refFromColumns(id *uuid.UUID, kind *string) *domain.DocRef {
	if id == nil {
		return nil
	}
	ref := &domain.DocRef{ID: *id}
	if kind != nil {
		ref.Kind = domain.Kind(*kind)
	}
	return ref
}

func scanDocument(s scanner, kind domain.Kind) (*domain.Document, error) {
	doc := domain.Document{Kind: kind}
	var (
		lines            []byte
		fromID, toID     *uuid.UUID
		fromKind, toKind *string
	)
	err := s.Scan(
		&doc.ID, &doc.TenantID, &doc.Number, &doc.Date, &doc.DueDate,
		&doc.Party.ID, &doc.Party.Name, &doc.Party.Phone, &doc.StateOfSupply, &doc.Description, &lines,
		&doc.Totals.SubTotal, &doc.Totals.TotalDiscount, &doc.Totals.TotalTax, &doc.Totals.RoundOff, &doc.Totals.GrandTotal,
		&doc.Payment.Type, &doc.Payment.Settled, &doc.Payment.Allocated, &doc.Payment.BalanceDue, &doc.Payment.IsPaid, &doc.Status,
		&fromID, &fromKind, &toID, &toKind,
		&doc.Linkage.IsReturn, &doc.Linkage.OriginalDocumentID, &doc.StockAppliedUpstream, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &doc.Lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	doc.Linkage.ConvertedFrom = refFromColumns(fromID, fromKind)
	doc.Linkage.ConvertedTo = refFromColumns(toID, toKind)
	return &doc, nil
}
