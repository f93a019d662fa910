package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/gorm"
)

// SignalementService porte les opérations métier sur les signalements côté
// magasin autoritaire. L'import/publication vers le document store vit dans
// le moteur de synchronisation.
type SignalementService struct {
	DB      *gorm.DB
	Catalog *status.Catalog
}

func NewSignalementService(db *gorm.DB, catalog *status.Catalog) *SignalementService {
	return &SignalementService{DB: db, Catalog: catalog}
}

func (s *SignalementService) GetAll() ([]models.Signalement, error) {
	var rows []models.Signalement
	err := s.DB.Preload("User").Preload("Point").Preload("Status").Preload("Images").Find(&rows).Error
	return rows, err
}

func (s *SignalementService) GetByID(id uint) (*models.Signalement, error) {
	var row models.Signalement
	err := s.DB.Preload("User").Preload("Point").Preload("Status").Preload("Images").First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("signalement introuvable id=%d", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// EnvoyerTechnicien passe un signalement au statut intermédiaire (technicien
// envoyé), historique compris.
func (s *SignalementService) EnvoyerTechnicien(id uint) (*models.Signalement, error) {
	row, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	next, err := s.Catalog.SignalementByValeur(status.ValeurEnCours)
	if err != nil {
		return nil, err
	}
	if err := TransitionSignalement(s.DB, row, next, time.Now()); err != nil {
		return nil, err
	}
	return row, nil
}

// RapportTech est le constat chiffré déposé par un technicien sur place.
type RapportTech struct {
	SignalementID uint
	EntrepriseID  uint
	Surface       float64
	BudgetEstime  float64
	Niveau        int
}

// RapportTechnicien crée le problème issu du constat et résout le signalement
// parent, en une seule unité logique: le problème naît au statut initial avec
// sa ligne d'historique, le signalement passe au statut terminal avec la
// sienne, les deux lignes portant le même horodatage.
func (s *SignalementService) RapportTechnicien(in RapportTech) (*models.Probleme, error) {
	if in.Surface <= 0 {
		return nil, fmt.Errorf("surface invalide: %g", in.Surface)
	}
	if in.BudgetEstime < 0 {
		return nil, fmt.Errorf("budget estimé invalide: %g", in.BudgetEstime)
	}
	if in.Niveau == 0 {
		in.Niveau = 1
	}
	if in.Niveau < 1 || in.Niveau > 10 {
		return nil, fmt.Errorf("niveau hors bornes (1..10): %d", in.Niveau)
	}

	signalement, err := s.GetByID(in.SignalementID)
	if err != nil {
		return nil, err
	}
	var entreprise models.Entreprise
	if err := s.DB.First(&entreprise, in.EntrepriseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("entreprise introuvable id=%d", in.EntrepriseID)
		}
		return nil, err
	}

	initial, err := s.Catalog.InitialProbleme()
	if err != nil {
		return nil, err
	}
	terminal, err := s.Catalog.SignalementByValeur(s.Catalog.TerminalValeur(status.KindSignalement))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	probleme := models.Probleme{
		SignalementID: signalement.ID,
		Surface:       in.Surface,
		BudgetEstime:  in.BudgetEstime,
		Niveau:        in.Niveau,
		EntrepriseID:  entreprise.ID,
		StatusID:      initial.ID,
		Published:     false,
		CreatedAt:     now,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&probleme).Error; err != nil {
			return fmt.Errorf("création problème: %w", err)
		}
		history := models.ProblemeHistory{ProblemeID: probleme.ID, StatusID: initial.ID, ChangedAt: now}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("historique problème: %w", err)
		}
		return TransitionSignalement(tx, signalement, terminal, now)
	})
	if err != nil {
		return nil, err
	}
	probleme.Status = initial
	probleme.Entreprise = entreprise
	probleme.Signalement = *signalement
	return &probleme, nil
}
