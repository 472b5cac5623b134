package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

type RegistrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// Create appends a registration row together with its members.
// The service performs the duplicate scan before calling this; the unique
// indexes on the table are a backstop for the scan-then-append race, and a
// violation surfaces as ErrConflict just like a scan hit would.
func (r *RegistrationRepo) Create(reg *entity.Registration) error {
	if err := r.db.Create(reg).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: registration collides with an existing record", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

// UpdateIdentifiers backfills the registration id and ticket number into a
// just-appended row.
func (r *RegistrationRepo) UpdateIdentifiers(id uint, registrationID, ticketNumber string) error {
	err := r.db.Model(&entity.Registration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"registration_id": registrationID,
			"ticket_number":   ticketNumber,
		}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: identifier collision on registration %d", apperrors.ErrConflict, id)
		}
		return fmt.Errorf("failed to backfill identifiers for registration %d: %w", id, err)
	}
	return nil
}

func (r *RegistrationRepo) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&entity.Registration{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// ListAll returns every registration with its members, in serial order.
func (r *RegistrationRepo) ListAll() ([]entity.Registration, error) {
	var regs []entity.Registration
	err := r.db.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("team_members.position ASC")
		}).
		Order("serial_no ASC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// isUniqueViolation checks Postgres unique violation (23505) for both the
// pgx and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}

	return false
}
