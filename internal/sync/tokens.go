package sync

import (
	"context"
	"log"

	"github.com/projet-lalana/backend/internal/docstore"
	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/gorm"
)

// TokenRefresher recopie en local le token push courant de chaque utilisateur
// lié, depuis push_tokens/{uid}. Le mobile écrit ce document à la connexion;
// le cache local sert d'adressage par défaut aux notifications.
type TokenRefresher struct {
	db    *gorm.DB
	store docstore.Store
}

func NewTokenRefresher(db *gorm.DB, store docstore.Store) *TokenRefresher {
	return &TokenRefresher{db: db, store: store}
}

// Refresh renvoie le nombre de tokens mis à jour. Un échec de lecture pour un
// utilisateur est journalisé et n'arrête pas les suivants.
func (t *TokenRefresher) Refresh(ctx context.Context) (int, error) {
	var users []models.User
	if err := t.db.Where("provider_uid <> ''").Find(&users).Error; err != nil {
		return 0, err
	}

	refreshed := 0
	for _, user := range users {
		data, ok, err := t.store.Get(ctx, docstore.CollectionPushTokens, user.ProviderUID)
		if err != nil {
			log.Printf("[TOKENS] lecture push_tokens/%s: %v", user.ProviderUID, err)
			continue
		}
		if !ok {
			continue
		}
		rec, err := docstore.DecodeTokenRecord(docstore.Document{ID: user.ProviderUID, Data: data})
		if err != nil {
			log.Printf("[TOKENS] %v", err)
			continue
		}
		if rec.Token == "" || rec.Token == user.PushToken {
			continue
		}
		if err := t.db.Model(&models.User{}).Where("id = ?", user.ID).Update("push_token", rec.Token).Error; err != nil {
			log.Printf("[TOKENS] mise à jour token user id=%d: %v", user.ID, err)
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		log.Printf("[TOKENS] %d token(s) push rafraîchi(s)", refreshed)
	}
	return refreshed, nil
}
