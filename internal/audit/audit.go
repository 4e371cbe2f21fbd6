package audit

import (
	"context"

	"github.com/farellandr/namitix/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder keeps the trail of issuance attempts. Recording is
// best-effort: implementations log their own failures.
type Recorder interface {
	Record(ctx context.Context, issuance models.Issuance)
}

// Repository persists issuance records with gorm.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewRepository(db *gorm.DB, logger *logrus.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Record(ctx context.Context, issuance models.Issuance) {
	entry := r.logger.WithContext(ctx).WithFields(fields(issuance))
	if err := r.db.WithContext(ctx).Create(&issuance).Error; err != nil {
		entry.WithError(err).Error("failed to persist issuance record")
		return
	}
	entry.Debug("issuance recorded")
}

func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]models.Issuance, error) {
	var rows []models.Issuance
	err := r.db.WithContext(ctx).
		Where("owner_address = ?", owner).
		Order("created_at desc").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LogRecorder writes issuance records to the log only. It is used when no
// database is configured.
type LogRecorder struct {
	logger *logrus.Logger
}

func NewLogRecorder(logger *logrus.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, issuance models.Issuance) {
	entry := r.logger.WithContext(ctx).WithFields(fields(issuance))
	if issuance.Outcome == models.OutcomeIssued {
		entry.Info("issuance recorded")
		return
	}
	entry.Warn("issuance recorded")
}

func fields(issuance models.Issuance) logrus.Fields {
	f := logrus.Fields{
		"event_id": issuance.EventID,
		"owner":    issuance.OwnerAddress,
		"outcome":  issuance.Outcome,
	}
	if issuance.TicketID != "" {
		f["ticket_id"] = issuance.TicketID
	}
	if issuance.TxDigest != "" {
		f["tx_digest"] = issuance.TxDigest
	}
	if issuance.BlobID != "" {
		f["blob_id"] = issuance.BlobID
	}
	if issuance.Failure != "" {
		f["failure"] = issuance.Failure
	}
	return f
}
