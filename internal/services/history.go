package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/gorm"
)

// Chemin d'écriture unique pour toute transition de statut: la ligne
// d'historique et le champ dénormalisé partent dans la même transaction, un
// crash entre les deux ne peut pas les désaccorder. L'historique est la vérité,
// le champ sur l'entité n'est qu'un cache.

// ErrBackwardTransition: les statuts ne reculent jamais dans le cycle de vie.
var ErrBackwardTransition = errors.New("transition de statut en arrière refusée")

// TransitionSignalement applique un nouveau statut à un signalement: mise à
// jour du cache + ligne SignalementHistory, atomiquement. Transition
// uniquement vers une valeur supérieure ou égale.
func TransitionSignalement(db *gorm.DB, s *models.Signalement, newStatus models.SignalementStatus, at time.Time) error {
	var current models.SignalementStatus
	if err := db.First(&current, s.StatusID).Error; err != nil {
		return fmt.Errorf("statut courant signalement id=%d: %w", s.ID, err)
	}
	if newStatus.Valeur < current.Valeur {
		return fmt.Errorf("signalement id=%d (%d -> %d): %w", s.ID, current.Valeur, newStatus.Valeur, ErrBackwardTransition)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(s).Update("status_id", newStatus.ID).Error; err != nil {
			return err
		}
		history := models.SignalementHistory{SignalementID: s.ID, StatusID: newStatus.ID, ChangedAt: at}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		s.StatusID = newStatus.ID
		s.Status = newStatus
		return nil
	})
}

// TransitionProbleme: même contrat que TransitionSignalement, côté problème.
func TransitionProbleme(db *gorm.DB, p *models.Probleme, newStatus models.ProblemeStatus, at time.Time) error {
	var current models.ProblemeStatus
	if err := db.First(&current, p.StatusID).Error; err != nil {
		return fmt.Errorf("statut courant problème id=%d: %w", p.ID, err)
	}
	if newStatus.Valeur < current.Valeur {
		return fmt.Errorf("problème id=%d (%d -> %d): %w", p.ID, current.Valeur, newStatus.Valeur, ErrBackwardTransition)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(p).Update("status_id", newStatus.ID).Error; err != nil {
			return err
		}
		history := models.ProblemeHistory{ProblemeID: p.ID, StatusID: newStatus.ID, ChangedAt: at}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		p.StatusID = newStatus.ID
		p.Status = newStatus
		return nil
	})
}

// TransitionUserStatus applique un état bloqué/débloqué à un utilisateur:
// ligne UserHistory + cache CurrentStatus + drapeau de répercussion sortante,
// dans une seule transaction.
func TransitionUserStatus(db *gorm.DB, userID uint, newStatus int, at time.Time, syncedOutward bool) (models.UserHistory, error) {
	history := models.UserHistory{UserID: userID, Status: newStatus, ChangedAt: at}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]any{"current_status": newStatus, "synced_outward": syncedOutward}).Error
	})
	return history, err
}

// LastUserStatus renvoie le statut de la dernière ligne d'historique de
// l'utilisateur, ou -1 s'il n'en a aucune.
func LastUserStatus(db *gorm.DB, userID uint) (int, error) {
	var last models.UserHistory
	err := db.Where("user_id = ?", userID).Order("changed_at DESC, id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return last.Status, nil
}
