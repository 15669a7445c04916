package repository

import (
	"context"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresAuditRepo persists audit events for deployments that need the
// trail to survive restarts. File-only logging remains the fallback.
type PostgresAuditRepo struct {
	db *gorm.DB
}

func NewPostgresAuditRepo(db *gorm.DB) *PostgresAuditRepo {
	repo := &PostgresAuditRepo{db: db}
	_ = db.AutoMigrate(&model.AuditEvent{})
	return repo
}

func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditEvent) error {
	if entry == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *PostgresAuditRepo) List(ctx context.Context, wallet string, limit int, from, to *time.Time) ([]*model.AuditEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.AuditEvent{})
	if wallet != "" {
		q = q.Where("wallet = ?", wallet)
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	var records []*model.AuditEvent
	err := q.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *PostgresAuditRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditEvent{}).Error
}
