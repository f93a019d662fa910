package status

import (
	"fmt"
	"testing"

	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.SignalementStatus{}, &models.ProblemeStatus{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seed := []models.SignalementStatus{
		{Nom: "Nouveau", Valeur: 10},
		{Nom: "Technicien envoyé", Valeur: 20},
		{Nom: "Résolu", Valeur: 30},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed signalement status: %v", err)
		}
	}
	pseed := []models.ProblemeStatus{
		{Nom: "Nouveau", Valeur: 10},
		{Nom: "En cours", Valeur: 20},
		{Nom: "Terminé", Valeur: 30},
	}
	for i := range pseed {
		if err := db.Create(&pseed[i]).Error; err != nil {
			t.Fatalf("seed probleme status: %v", err)
		}
	}
	return db
}

func TestCatalogLookupByValeur(t *testing.T) {
	db := setupTestDB(t, t.Name())
	c := NewCatalog(db)

	st, err := c.SignalementByValeur(ValeurInitial)
	if err != nil {
		t.Fatalf("signalement valeur=10: %v", err)
	}
	if st.Nom != "Nouveau" {
		t.Fatalf("expected Nouveau got %q", st.Nom)
	}

	ps, err := c.ProblemeByValeur(ValeurEnCours)
	if err != nil {
		t.Fatalf("probleme valeur=20: %v", err)
	}
	if ps.Nom != "En cours" {
		t.Fatalf("expected En cours got %q", ps.Nom)
	}
}

func TestCatalogUnknownValeur(t *testing.T) {
	db := setupTestDB(t, t.Name())
	c := NewCatalog(db)

	if _, err := c.SignalementByValeur(99); err == nil {
		t.Fatalf("expected error for unknown valeur")
	}
	if _, err := c.ProblemeByValeur(0); err == nil {
		t.Fatalf("expected error for unknown valeur")
	}
}

func TestCatalogCachesRows(t *testing.T) {
	db := setupTestDB(t, t.Name())
	c := NewCatalog(db)

	if _, err := c.InitialSignalement(); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	// Un catalogue chargé ne retourne plus en base: une ligne ajoutée après
	// coup reste invisible jusqu'au prochain processus.
	if err := db.Create(&models.SignalementStatus{Nom: "Fantôme", Valeur: 40}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.SignalementByValeur(40); err == nil {
		t.Fatalf("expected cached catalog to miss late row")
	}
}

func TestCatalogLifecycleHelpers(t *testing.T) {
	db := setupTestDB(t, t.Name())
	c := NewCatalog(db)

	if !c.IsTerminal(ValeurTerminal) {
		t.Fatalf("valeur terminale non reconnue")
	}
	if c.IsTerminal(ValeurEnCours) {
		t.Fatalf("valeur intermédiaire prise pour terminale")
	}
	if got := c.TerminalValeur(KindSignalement); got != ValeurTerminal {
		t.Fatalf("terminal valeur: got %d", got)
	}
	if got := c.InitialValeur(KindProbleme); got != ValeurInitial {
		t.Fatalf("initial valeur: got %d", got)
	}
}
