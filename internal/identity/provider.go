// Package identity expose le fournisseur d'identité externe (comptes,
// activation/désactivation) sous forme de port. Le SDK concret est un
// collaborateur externe hors périmètre.
package identity

import (
	"context"
	"fmt"
)

// Account est un compte tel que vu côté fournisseur.
type Account struct {
	UID      string
	Email    string
	Disabled bool
}

type Provider interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	EnableAccount(ctx context.Context, uid string) error
	DisableAccount(ctx context.Context, uid string) error
	DeleteAccount(ctx context.Context, uid string) error
}

// ErrAccountNotFound est renvoyée par les implémentations quand l'UID est inconnu.
var ErrAccountNotFound = fmt.Errorf("compte fournisseur introuvable")
