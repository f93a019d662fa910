package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/gorm"
)

// recordingNotifier capture les appels pour vérifier qu'ils partent après la
// transition, avec le bon adressage.
type recordingNotifier struct {
	resolved      []uint
	statusChanges []string
}

func (r *recordingNotifier) WorkItemResolved(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, description string) bool {
	r.resolved = append(r.resolved, problemeID)
	return true
}

func (r *recordingNotifier) WorkItemStatusChanged(ctx context.Context, problemeID, userID uint, cachedToken, providerUID, oldStatus, newStatus string) bool {
	r.statusChanges = append(r.statusChanges, oldStatus+"->"+newStatus)
	return true
}

func seedProbleme(t *testing.T, conn *gorm.DB, catalog *status.Catalog, signalementID uint) models.Probleme {
	t.Helper()
	entreprise := seedEntreprise(t, conn)
	initial, err := catalog.InitialProbleme()
	if err != nil {
		t.Fatalf("initial status: %v", err)
	}
	p := models.Probleme{SignalementID: signalementID, Surface: 10, BudgetEstime: 1000, Niveau: 3, EntrepriseID: entreprise.ID, StatusID: initial.ID, CreatedAt: time.Now()}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed probleme: %v", err)
	}
	h := models.ProblemeHistory{ProblemeID: p.ID, StatusID: initial.ID, ChangedAt: p.CreatedAt}
	if err := conn.Create(&h).Error; err != nil {
		t.Fatalf("seed history: %v", err)
	}
	return p
}

func TestProcesserNotifiesStatusChange(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	notifier := &recordingNotifier{}
	svc := NewProblemeService(conn, catalog, notifier)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	p := seedProbleme(t, conn, catalog, s.ID)

	updated, err := svc.Processer(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("processer: %v", err)
	}
	if updated.Status.Valeur != status.ValeurEnCours {
		t.Fatalf("expected valeur 20 got %d", updated.Status.Valeur)
	}
	if len(notifier.statusChanges) != 1 || notifier.statusChanges[0] != "Nouveau->En cours" {
		t.Fatalf("unexpected notifications %v", notifier.statusChanges)
	}
	if len(notifier.resolved) != 0 {
		t.Fatalf("no resolution notification expected")
	}
}

func TestResoudreNotifiesResolution(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	notifier := &recordingNotifier{}
	svc := NewProblemeService(conn, catalog, notifier)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	p := seedProbleme(t, conn, catalog, s.ID)

	updated, err := svc.Resoudre(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("resoudre: %v", err)
	}
	if updated.Status.Valeur != status.ValeurTerminal {
		t.Fatalf("expected valeur 30 got %d", updated.Status.Valeur)
	}
	if len(notifier.resolved) != 1 || notifier.resolved[0] != p.ID {
		t.Fatalf("unexpected resolution notifications %v", notifier.resolved)
	}
}

func TestResoudreThenProcesserRejected(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewProblemeService(conn, catalog, nil)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	p := seedProbleme(t, conn, catalog, s.ID)

	if _, err := svc.Resoudre(context.Background(), p.ID); err != nil {
		t.Fatalf("resoudre: %v", err)
	}
	_, err := svc.Processer(context.Background(), p.ID)
	if !errors.Is(err, ErrBackwardTransition) {
		t.Fatalf("expected ErrBackwardTransition got %v", err)
	}
}

func TestNilNotifierDisablesNotifications(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewProblemeService(conn, catalog, nil)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	p := seedProbleme(t, conn, catalog, s.ID)

	if _, err := svc.Resoudre(context.Background(), p.ID); err != nil {
		t.Fatalf("resoudre without notifier: %v", err)
	}
}

func TestStatsCountsAndDurations(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewProblemeService(conn, catalog, nil)
	user := seedUser(t, conn, "u@lalana.mg")

	// un chantier terminé en 3 jours (1 jour nouveau->en cours, 2 jours en cours->terminé)
	s1 := seedSignalement(t, conn, catalog, user.ID)
	p1 := seedProbleme(t, conn, catalog, s1.ID)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	enCours, _ := catalog.ProblemeByValeur(status.ValeurEnCours)
	termine, _ := catalog.ProblemeByValeur(status.ValeurTerminal)
	_ = conn.Model(&models.ProblemeHistory{}).Where("probleme_id = ?", p1.ID).Update("changed_at", base).Error
	_ = conn.Create(&models.ProblemeHistory{ProblemeID: p1.ID, StatusID: enCours.ID, ChangedAt: base.AddDate(0, 0, 1)}).Error
	_ = conn.Create(&models.ProblemeHistory{ProblemeID: p1.ID, StatusID: termine.ID, ChangedAt: base.AddDate(0, 0, 3)}).Error
	_ = conn.Model(&models.Probleme{}).Where("id = ?", p1.ID).Update("status_id", termine.ID).Error

	// un second chantier encore nouveau
	s2 := seedSignalement(t, conn, catalog, user.ID)
	seedProbleme(t, conn, catalog, s2.ID)

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Counts["total"] != 2 || stats.Counts["termine"] != 1 || stats.Counts["nouveau"] != 1 {
		t.Fatalf("unexpected counts %v", stats.Counts)
	}
	if got := stats.AverageDays["nouveauToEnCours"]; got != 1 {
		t.Fatalf("expected 1 day got %g", got)
	}
	if got := stats.AverageDays["enCoursToTermine"]; got != 2 {
		t.Fatalf("expected 2 days got %g", got)
	}
	if got := stats.AverageDays["totalNouveauToTermine"]; got != 3 {
		t.Fatalf("expected 3 days got %g", got)
	}
}
