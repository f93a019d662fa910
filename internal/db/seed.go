package db

import (
	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/gorm"
)

// SeedStatuses insère les deux catalogues de statuts (signalement, problème)
// s'ils sont absents. Idempotent: la valeur sert de clé naturelle.
func SeedStatuses(db *gorm.DB) error {
	signalementStatuses := []models.SignalementStatus{
		{Nom: "Nouveau", Valeur: 10},
		{Nom: "Technicien envoyé", Valeur: 20},
		{Nom: "Résolu", Valeur: 30},
	}
	for _, st := range signalementStatuses {
		var existing models.SignalementStatus
		err := db.Where("valeur = ?", st.Valeur).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&st).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	problemeStatuses := []models.ProblemeStatus{
		{Nom: "Nouveau", Valeur: 10},
		{Nom: "En cours", Valeur: 20},
		{Nom: "Terminé", Valeur: 30},
	}
	for _, st := range problemeStatuses {
		var existing models.ProblemeStatus
		err := db.Where("valeur = ?", st.Valeur).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&st).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
