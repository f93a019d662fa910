package sync

import "fmt"

// Taxonomie d'erreurs du moteur. Ces types remplacent les exceptions fourre-tout
// de l'historique: chaque opération par enregistrement renvoie une erreur typée
// que la boucle englobante convertit en skip journalisé, jamais en abandon du lot.

// NotFoundError: une entité, un statut ou un utilisateur référencé manque.
// Fatal pour l'opération en cours, jamais pour le cycle.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s introuvable (%s)", e.Entity, e.Key)
}

// ExternalServiceError: un appel au document store ou au fournisseur d'identité
// a échoué. Fatal pour l'enregistrement/utilisateur en cours de traitement.
type ExternalServiceError struct {
	Service string // "docstore" ou "identity"
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("appel %s (%s): %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
