package repository

import "github.com/yourusername/eventreg-api/internal/domain/entity"

// AdminRepository is the admin directory lookup. GetByEmail returns
// apperrors.ErrNotFound for addresses that are not in the directory.
type AdminRepository interface {
	GetByEmail(email string) (*entity.Admin, error)
}
