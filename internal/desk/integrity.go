package desk

import (
	"context"

	"github.com/koipond/inkwell/internal/store"
)

// Audit checks every entry's version chain (contiguity, head equality,
// checksum recomputation) and pending blocks for dangling entry references.
func (d *Desk) Audit(ctx context.Context) (store.AuditReport, error) {
	return d.store.Audit(ctx)
}

// AuditEntry checks a single entry's version chain.
func (d *Desk) AuditEntry(ctx context.Context, entryID string) (store.EntryAudit, error) {
	return d.store.AuditEntry(ctx, entryID)
}
