package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

type AdminRepo struct {
	db *gorm.DB
}

func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// GetByEmail looks up an active admin directory entry. Lookups are
// case-insensitive; inactive entries behave as absent.
func (r *AdminRepo) GetByEmail(email string) (*entity.Admin, error) {
	var admin entity.Admin
	err := r.db.
		Where("LOWER(email) = ? AND active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up admin %s: %w", email, err)
	}
	return &admin, nil
}
