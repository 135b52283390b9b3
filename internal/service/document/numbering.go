package document

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
)

// assignNumber keeps a client supplied number as-is and otherwise draws the
// next value of the variant's series.
func (s *Service) assignNumber(ctx context.Context, tx *sql.Tx, doc *domain.Document, rule domain.Rule) error {
	if doc.Number != "" {
		return nil
	}
	n, err := s.seq.Next(ctx, tx, doc.TenantID, rule.Prefix)
	if err != nil {
		return fmt.Errorf("assignNumber: %w", err)
	}
	doc.Number = domain.FormatNumber(rule.Prefix, n)
	return nil
}
