package outbox

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a row inside the caller's transaction. The outbox is only
// ever written together with the business mutation.
func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchDueTx returns unpublished rows that are due for a publish attempt,
// oldest first. Rows backing off (next_attempt_at in the future) and rows out
// of attempts are skipped so one poisoned event never blocks the stream.
func (r *Repository) FetchDueTx(tx *gorm.DB, limit, maxAttempts int, now time.Time) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	err := tx.Where("is_published = ?", false).
		Where("retry_count < ?", maxAttempts).
		Where("next_attempt_at <= ?", now).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublishedTx flips the publish state after the transport accepted the
// message. Setting it twice is harmless.
func (r *Repository) MarkPublishedTx(tx *gorm.DB, id int64) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_published": true,
			"published_at": time.Now().UTC(),
		}).Error
}

// MarkFailedTx records a failed attempt and schedules the next one.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id int64, cause error, nextAttemptAt time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":      cause.Error(),
			"retry_count":     gorm.Expr("retry_count + 1"),
			"next_attempt_at": nextAttemptAt,
		}).Error
}

// MarkTerminalTx exhausts the row so FetchDueTx never selects it again.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id int64, cause error, terminalAttempts int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":  cause.Error(),
			"retry_count": terminalAttempts,
		}).Error
}

// CountPending reports how many rows still await publishing.
func (r *Repository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.OutboxEvent{}).
		Where("is_published = ?", false).
		Count(&count).Error
	return count, err
}
