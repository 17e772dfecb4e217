// Package token issues opaque access tokens. Tokens are random UUIDs and are
// neither stored nor validated anywhere else in the service.
package token

import (
	"github.com/google/uuid"
)

// Issuer hands out a fresh token on every call.
type Issuer struct {
	newID func() (uuid.UUID, error)
}

func New() *Issuer {
	return &Issuer{newID: uuid.NewRandom}
}

// Issue returns a new random token.
func (i *Issuer) Issue() (string, error) {
	id, err := i.newID()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}
