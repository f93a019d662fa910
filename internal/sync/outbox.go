package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/projet-lalana/backend/internal/docstore"
)

// Pattern outbox: une intention de notification est écrite dans le document
// store UNIQUEMENT après que la mutation métier déclenchante a commité. Un
// dispatcher aval (hors périmètre) lit la collection, envoie, et porte seul
// les transitions SENT/ERROR.

const (
	IntentTypeReport   = "REPORT"
	IntentTypeWorkItem = "WORKITEM"

	ActionCreated       = "CREATED"
	ActionResolved      = "RESOLVED"
	ActionStatusChanged = "STATUS_CHANGED"

	intentStatusReady = "READY"
)

// Intent est une intention de notification à destination d'un utilisateur.
type Intent struct {
	Type      string // REPORT | WORKITEM
	EntityID  uint
	Action    string // CREATED | RESOLVED | STATUS_CHANGED
	Title     string
	Message   string
	UserID    string // id local du destinataire
	UserToken string // token push du destinataire
}

// Outbox enregistre les intentions dans la collection notification_outbox.
type Outbox struct {
	store docstore.Store
	now   func() time.Time
}

func NewOutbox(store docstore.Store) *Outbox {
	return &Outbox{store: store, now: time.Now}
}

// RecordIntent écrit une intention, en append-only: jamais de réécriture ni de
// réémission d'une intention existante. Adressage incomplet (token ou id
// destinataire vide): avertissement et false, la mutation métier ayant déjà
// réussi reste acquise.
func (o *Outbox) RecordIntent(ctx context.Context, intent Intent) bool {
	if intent.UserToken == "" {
		log.Printf("[OUTBOX] token destinataire manquant, notification sautée (type=%s entityId=%d action=%s)",
			intent.Type, intent.EntityID, intent.Action)
		return false
	}
	if intent.UserID == "" {
		log.Printf("[OUTBOX] id destinataire manquant, notification sautée (type=%s entityId=%d action=%s)",
			intent.Type, intent.EntityID, intent.Action)
		return false
	}

	// Id déterministe mais unique: les événements identiques répétés restent
	// distinguables par leur horodatage, un consommateur peut dédupliquer par
	// fenêtre s'il le souhaite.
	id := fmt.Sprintf("%s_%d_%s_%d", intent.Type, intent.EntityID, intent.Action, o.now().UnixMilli())

	doc := map[string]any{
		"type":       intent.Type,
		"entityId":   int64(intent.EntityID),
		"action":     intent.Action,
		"title":      intent.Title,
		"message":    intent.Message,
		"userId":     intent.UserID,
		"userToken":  intent.UserToken,
		"status":     intentStatusReady,
		"retryCount": 0,
		"createdAt":  o.now().UTC().Format(time.RFC3339),
	}
	if err := o.store.Set(ctx, docstore.CollectionNotifications, id, doc); err != nil {
		log.Printf("[OUTBOX] échec enregistrement intention %s: %v", id, err)
		return false
	}
	log.Printf("[OUTBOX] intention enregistrée: %s", id)
	return true
}

// ReportCreatedIntent construit l'intention émise à la première publication
// d'un signalement.
func ReportCreatedIntent(signalementID uint, userID, token, description string) Intent {
	return Intent{
		Type:      IntentTypeReport,
		EntityID:  signalementID,
		Action:    ActionCreated,
		Title:     "Nouveau signalement enregistré",
		Message:   "Votre signalement a été enregistré avec succès",
		UserID:    userID,
		UserToken: token,
	}
}

// WorkItemResolvedIntent construit l'intention émise à la résolution d'un problème.
func WorkItemResolvedIntent(problemeID uint, userID, token, description string) Intent {
	msg := "Le problème signalé a été résolu"
	if description != "" {
		msg = fmt.Sprintf("Le problème signalé a été résolu: %s", description)
	}
	return Intent{
		Type:      IntentTypeWorkItem,
		EntityID:  problemeID,
		Action:    ActionResolved,
		Title:     "Problème résolu",
		Message:   msg,
		UserID:    userID,
		UserToken: token,
	}
}

// StatusChangedIntent construit l'intention émise sur changement de statut.
func StatusChangedIntent(kind string, entityID uint, userID, token, oldStatus, newStatus string) Intent {
	return Intent{
		Type:      kind,
		EntityID:  entityID,
		Action:    ActionStatusChanged,
		Title:     "Mise à jour de statut",
		Message:   fmt.Sprintf("Le statut est passé de %q à %q", oldStatus, newStatus),
		UserID:    userID,
		UserToken: token,
	}
}
