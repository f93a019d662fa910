package services

import (
	"fmt"
	"testing"

	"github.com/projet-lalana/backend/internal/db"
	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedStatuses(conn); err != nil {
		t.Fatalf("seed statuses: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash", CurrentStatus: models.UserUnblocked}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedSignalement(t *testing.T, conn *gorm.DB, catalog *status.Catalog, userID uint) models.Signalement {
	t.Helper()
	point := models.Point{X: -18.9, Y: 47.5, Localisation: "Analakely"}
	if err := conn.Create(&point).Error; err != nil {
		t.Fatalf("seed point: %v", err)
	}
	initial, err := catalog.InitialSignalement()
	if err != nil {
		t.Fatalf("initial status: %v", err)
	}
	s := models.Signalement{UserID: userID, PointID: point.ID, Description: "nid-de-poule", StatusID: initial.ID}
	if err := conn.Create(&s).Error; err != nil {
		t.Fatalf("seed signalement: %v", err)
	}
	return s
}

func seedEntreprise(t *testing.T, conn *gorm.DB) models.Entreprise {
	t.Helper()
	e := models.Entreprise{Nom: "Colas Madagascar", Contact: "contact@colas.mg"}
	if err := conn.Where("nom = ?", e.Nom).FirstOrCreate(&e).Error; err != nil {
		t.Fatalf("seed entreprise: %v", err)
	}
	return e
}
