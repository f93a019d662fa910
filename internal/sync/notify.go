package sync

import (
	"context"
	"log"
	"strconv"

	"github.com/projet-lalana/backend/internal/docstore"
)

// resolvePushToken renvoie le token push exploitable: le token caché s'il
// ressemble à un vrai token, sinon le contenu de push_tokens/{uid}. Chaîne
// vide quand aucun token n'est connu.
func resolvePushToken(ctx context.Context, store docstore.Store, cachedToken, providerUID string) string {
	if cachedToken != "" && !looksLikeProviderUID(cachedToken) {
		return cachedToken
	}
	if providerUID == "" {
		return ""
	}
	data, ok, err := store.Get(ctx, docstore.CollectionPushTokens, providerUID)
	if err != nil {
		log.Printf("[NOTIFY] lecture push_tokens/%s: %v", providerUID, err)
		return ""
	}
	if !ok {
		return ""
	}
	rec, err := docstore.DecodeTokenRecord(docstore.Document{ID: providerUID, Data: data})
	if err != nil {
		log.Printf("[NOTIFY] %v", err)
		return ""
	}
	return rec.Token
}

// Notifier adapte l'outbox aux flux métier (résolution / changement de statut
// d'un problème): il résout d'abord l'adressage du destinataire puis
// enregistre l'intention. Implémente services.Notifier.
type Notifier struct {
	outbox *Outbox
	store  docstore.Store
}

func NewNotifier(outbox *Outbox, store docstore.Store) *Notifier {
	return &Notifier{outbox: outbox, store: store}
}

func (n *Notifier) WorkItemResolved(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, description string) bool {
	token := resolvePushToken(ctx, n.store, cachedToken, providerUID)
	return n.outbox.RecordIntent(ctx, WorkItemResolvedIntent(problemeID, strconv.FormatUint(uint64(userID), 10), token, description))
}

func (n *Notifier) WorkItemStatusChanged(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, oldStatus, newStatus string) bool {
	token := resolvePushToken(ctx, n.store, cachedToken, providerUID)
	return n.outbox.RecordIntent(ctx, StatusChangedIntent(IntentTypeWorkItem, problemeID, strconv.FormatUint(uint64(userID), 10), token, oldStatus, newStatus))
}
