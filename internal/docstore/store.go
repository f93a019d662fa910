// Package docstore expose le document store externe (surface de lecture /
// écriture du client mobile) sous forme de port clé-valeur. Le client concret
// est un collaborateur externe; seul le contrat ci-dessous est porté ici.
package docstore

import "context"

// Collections utilisées par le moteur de synchronisation.
const (
	CollectionReportInbox   = "report_inbox"   // soumissions en attente d'import
	CollectionReportList    = "report_list"    // projection publiée des signalements
	CollectionWorkItemList  = "workitem_list"  // projection publiée des problèmes
	CollectionNotifications = "notification_outbox"
	CollectionPushTokens    = "push_tokens" // push_tokens/{providerUID}
)

// Document est un document brut avec son identifiant de collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Store est le contrat minimal attendu du document store: sémantique
// clé-valeur par collection, upsert sur Set, Delete idempotent.
type Store interface {
	// Get returns the document and whether it exists.
	Get(ctx context.Context, collection, id string) (map[string]any, bool, error)
	// Set upserts the full document under the given id.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Document, error)
	// QueryEqual returns all documents whose field equals value.
	QueryEqual(ctx context.Context, collection, field string, value any) ([]Document, error)
}
