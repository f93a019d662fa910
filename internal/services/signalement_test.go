package services

import (
	"testing"

	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"
)

func TestEnvoyerTechnicien(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewSignalementService(conn, catalog)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)

	updated, err := svc.EnvoyerTechnicien(s.ID)
	if err != nil {
		t.Fatalf("envoyer technicien: %v", err)
	}
	if updated.Status.Valeur != status.ValeurEnCours {
		t.Fatalf("expected valeur 20 got %d", updated.Status.Valeur)
	}
	var count int64
	_ = conn.Model(&models.SignalementHistory{}).Where("signalement_id = ?", s.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 history row got %d", count)
	}
}

func TestRapportTechnicienCreatesProblemeAndResolvesParent(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewSignalementService(conn, catalog)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	entreprise := seedEntreprise(t, conn)

	probleme, err := svc.RapportTechnicien(RapportTech{
		SignalementID: s.ID,
		EntrepriseID:  entreprise.ID,
		Surface:       12.5,
		BudgetEstime:  300000,
		Niveau:        4,
	})
	if err != nil {
		t.Fatalf("rapport: %v", err)
	}
	if probleme.Status.Valeur != status.ValeurInitial {
		t.Fatalf("probleme must start at valeur 10, got %d", probleme.Status.Valeur)
	}
	if probleme.SignalementID != s.ID {
		t.Fatalf("probleme not linked to parent")
	}

	var parent models.Signalement
	if err := conn.Preload("Status").First(&parent, s.ID).Error; err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if parent.Status.Valeur != status.ValeurTerminal {
		t.Fatalf("parent must be resolved, valeur=%d", parent.Status.Valeur)
	}

	// les deux lignes d'historique portent le même horodatage
	var ph models.ProblemeHistory
	if err := conn.Where("probleme_id = ?", probleme.ID).First(&ph).Error; err != nil {
		t.Fatalf("probleme history missing: %v", err)
	}
	var sh models.SignalementHistory
	if err := conn.Where("signalement_id = ?", s.ID).First(&sh).Error; err != nil {
		t.Fatalf("signalement history missing: %v", err)
	}
	if !ph.ChangedAt.Equal(sh.ChangedAt) {
		t.Fatalf("history timestamps differ: %v vs %v", ph.ChangedAt, sh.ChangedAt)
	}
}

func TestRapportTechnicienValidation(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewSignalementService(conn, catalog)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	entreprise := seedEntreprise(t, conn)

	cases := []struct {
		name string
		in   RapportTech
	}{
		{"surface nulle", RapportTech{SignalementID: s.ID, EntrepriseID: entreprise.ID, Surface: 0}},
		{"budget négatif", RapportTech{SignalementID: s.ID, EntrepriseID: entreprise.ID, Surface: 1, BudgetEstime: -1}},
		{"niveau hors bornes", RapportTech{SignalementID: s.ID, EntrepriseID: entreprise.ID, Surface: 1, Niveau: 11}},
		{"entreprise inconnue", RapportTech{SignalementID: s.ID, EntrepriseID: 999, Surface: 1}},
		{"signalement inconnu", RapportTech{SignalementID: 999, EntrepriseID: entreprise.ID, Surface: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RapportTechnicien(tc.in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	// rien ne doit avoir été créé par les tentatives rejetées
	var count int64
	_ = conn.Model(&models.Probleme{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no probleme rows, got %d", count)
	}
}

func TestRapportTechnicienDefaultsNiveau(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	svc := NewSignalementService(conn, catalog)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)
	entreprise := seedEntreprise(t, conn)

	probleme, err := svc.RapportTechnicien(RapportTech{SignalementID: s.ID, EntrepriseID: entreprise.ID, Surface: 5})
	if err != nil {
		t.Fatalf("rapport: %v", err)
	}
	if probleme.Niveau != 1 {
		t.Fatalf("expected niveau defaulted to 1, got %d", probleme.Niveau)
	}
}
