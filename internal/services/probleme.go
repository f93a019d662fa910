package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/gorm"
)

// Notifier enregistre une intention de notification APRÈS qu'une mutation
// métier a commité (pattern outbox). Implémenté par le moteur de
// synchronisation; nil désactive les notifications.
type Notifier interface {
	WorkItemResolved(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, description string) bool
	WorkItemStatusChanged(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, oldStatus, newStatus string) bool
}

type ProblemeService struct {
	DB       *gorm.DB
	Catalog  *status.Catalog
	Notifier Notifier
}

func NewProblemeService(db *gorm.DB, catalog *status.Catalog, notifier Notifier) *ProblemeService {
	return &ProblemeService{DB: db, Catalog: catalog, Notifier: notifier}
}

func (s *ProblemeService) GetAll() ([]models.Probleme, error) {
	var rows []models.Probleme
	err := s.DB.Preload("Status").Preload("Entreprise").Preload("Signalement").Preload("Signalement.User").Find(&rows).Error
	return rows, err
}

func (s *ProblemeService) GetByID(id uint) (*models.Probleme, error) {
	var row models.Probleme
	err := s.DB.Preload("Status").Preload("Entreprise").Preload("Signalement").Preload("Signalement.User").First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("problème introuvable id=%d", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Processer passe un problème en cours de traitement et notifie le citoyen
// du changement de statut une fois la transition commitée.
func (s *ProblemeService) Processer(ctx context.Context, id uint) (*models.Probleme, error) {
	return s.transition(ctx, id, status.ValeurEnCours)
}

// Resoudre termine un problème et notifie le citoyen de la résolution une
// fois la transition commitée.
func (s *ProblemeService) Resoudre(ctx context.Context, id uint) (*models.Probleme, error) {
	return s.transition(ctx, id, status.ValeurTerminal)
}

func (s *ProblemeService) transition(ctx context.Context, id uint, valeur int) (*models.Probleme, error) {
	row, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	oldStatus := row.Status
	next, err := s.Catalog.ProblemeByValeur(valeur)
	if err != nil {
		return nil, err
	}
	if err := TransitionProbleme(s.DB, row, next, time.Now()); err != nil {
		return nil, err
	}

	// Intention de notification seulement après commit réussi; son échec ne
	// remet pas la transition en cause.
	if s.Notifier != nil {
		user := row.Signalement.User
		switch valeur {
		case status.ValeurTerminal:
			s.Notifier.WorkItemResolved(ctx, row.ID, user.ID, user.PushToken, user.ProviderUID, row.Signalement.Description)
		default:
			s.Notifier.WorkItemStatusChanged(ctx, row.ID, user.ID, user.PushToken, user.ProviderUID, oldStatus.Nom, next.Nom)
		}
	}
	return row, nil
}

// ManagerStats agrège l'avancement des chantiers pour le tableau de bord.
type ManagerStats struct {
	Counts      map[string]int     `json:"counts"`
	AverageDays map[string]float64 `json:"averageDays"`
}

// Stats calcule les effectifs par statut et les durées moyennes (en jours)
// entre les étapes du cycle de vie, à partir de l'historique.
func (s *ProblemeService) Stats() (ManagerStats, error) {
	stats := ManagerStats{
		Counts:      map[string]int{"nouveau": 0, "enCours": 0, "termine": 0, "total": 0},
		AverageDays: map[string]float64{},
	}

	var rows []models.Probleme
	if err := s.DB.Preload("Status").Find(&rows).Error; err != nil {
		return stats, err
	}
	stats.Counts["total"] = len(rows)

	var toEnCours, toTermine, total []float64
	for _, p := range rows {
		switch p.Status.Valeur {
		case status.ValeurInitial:
			stats.Counts["nouveau"]++
		case status.ValeurEnCours:
			stats.Counts["enCours"]++
		case status.ValeurTerminal:
			stats.Counts["termine"]++
		}

		var history []models.ProblemeHistory
		if err := s.DB.Preload("Status").Where("probleme_id = ?", p.ID).Order("changed_at ASC").Find(&history).Error; err != nil {
			return stats, err
		}
		first := map[int]time.Time{}
		for _, h := range history {
			if _, seen := first[h.Status.Valeur]; !seen {
				first[h.Status.Valeur] = h.ChangedAt
			}
		}
		if a, ok := first[status.ValeurInitial]; ok {
			if b, ok := first[status.ValeurEnCours]; ok {
				toEnCours = append(toEnCours, b.Sub(a).Hours()/24)
			}
			if c, ok := first[status.ValeurTerminal]; ok {
				total = append(total, c.Sub(a).Hours()/24)
			}
		}
		if b, ok := first[status.ValeurEnCours]; ok {
			if c, ok := first[status.ValeurTerminal]; ok {
				toTermine = append(toTermine, c.Sub(b).Hours()/24)
			}
		}
	}

	stats.AverageDays["nouveauToEnCours"] = mean(toEnCours)
	stats.AverageDays["enCoursToTermine"] = mean(toTermine)
	stats.AverageDays["totalNouveauToTermine"] = mean(total)
	return stats, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
