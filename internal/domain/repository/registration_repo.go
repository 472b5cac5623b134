package repository

import "github.com/yourusername/eventreg-api/internal/domain/entity"

// RegistrationRepository persists completed registrations. The duplicate
// scan deliberately works off ListAll: the table is small and writes are
// infrequent, so no email index is maintained at this layer.
type RegistrationRepository interface {
	Create(reg *entity.Registration) error
	UpdateIdentifiers(id uint, registrationID, ticketNumber string) error
	Count() (int64, error)
	ListAll() ([]entity.Registration, error)
}
