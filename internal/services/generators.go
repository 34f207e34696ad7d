package services

import (
	"github.com/google/uuid"

	"file-message/internal/models"
)

// IDGenerator produces unique asset identifiers.
type IDGenerator interface {
	NewID() string
}

// RefMinter hands out in-process content references that the UI can display
// immediately, before anything is uploaded.
type RefMinter interface {
	Mint(file *models.RawFile) string
	Revoke(ref string)
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
