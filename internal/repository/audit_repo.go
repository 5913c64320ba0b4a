package repository

import (
	"context"
	"time"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is the append-only ledger of workflow actions. Append is
// the only write; entries are never updated or deleted. Seq numbering is
// per-request and strictly increasing: concurrent appends to the same
// request serialize on the request row, and the unique (request_id, seq)
// index backstops any writer that slipped past the lock.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.AuditEntry, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	db := GetDB(ctx, r.db)

	// Lock the request row before reading MAX(seq) so two actors deciding
	// different items of the same request queue up instead of computing the
	// same seq and losing one transaction to the unique index. sqlite is
	// single-writer and needs no lock.
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT id FROM issuance_requests WHERE id = ? FOR UPDATE", entry.RequestID).Error; err != nil {
			return err
		}
	}

	var maxSeq int
	err := db.Model(&model.AuditEntry{}).
		Where("request_id = ?", entry.RequestID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return err
	}

	entry.Seq = maxSeq + 1
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	return db.Create(entry).Error
}

func (r *auditRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("seq asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *auditRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	if err := GetDB(ctx, r.db).
		Where("item_id = ?", itemID).
		Order("seq asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
