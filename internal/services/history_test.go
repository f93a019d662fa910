package services

import (
	"errors"
	"testing"
	"time"

	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"
)

func TestTransitionSignalementForwardOnly(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)

	enCours, _ := catalog.SignalementByValeur(status.ValeurEnCours)
	if err := TransitionSignalement(conn, &s, enCours, time.Now()); err != nil {
		t.Fatalf("forward transition: %v", err)
	}
	if s.StatusID != enCours.ID {
		t.Fatalf("struct not updated")
	}

	initial, _ := catalog.InitialSignalement()
	err := TransitionSignalement(conn, &s, initial, time.Now())
	if !errors.Is(err, ErrBackwardTransition) {
		t.Fatalf("expected ErrBackwardTransition got %v", err)
	}
	// la transition refusée ne laisse aucune trace
	var count int64
	_ = conn.Model(&models.SignalementHistory{}).Where("signalement_id = ?", s.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 history row got %d", count)
	}
}

func TestTransitionSignalementSameValeurAllowed(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)

	initial, _ := catalog.InitialSignalement()
	if err := TransitionSignalement(conn, &s, initial, time.Now()); err != nil {
		t.Fatalf("same-valeur transition must pass: %v", err)
	}
}

func TestTransitionWritesHistoryAtomically(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	catalog := status.NewCatalog(conn)
	user := seedUser(t, conn, "u@lalana.mg")
	s := seedSignalement(t, conn, catalog, user.ID)

	when := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)
	enCours, _ := catalog.SignalementByValeur(status.ValeurEnCours)
	if err := TransitionSignalement(conn, &s, enCours, when); err != nil {
		t.Fatalf("transition: %v", err)
	}

	var h models.SignalementHistory
	if err := conn.Where("signalement_id = ?", s.ID).First(&h).Error; err != nil {
		t.Fatalf("history row missing: %v", err)
	}
	if h.StatusID != enCours.ID || !h.ChangedAt.Equal(when) {
		t.Fatalf("unexpected history %+v", h)
	}
	var reloaded models.Signalement
	_ = conn.First(&reloaded, s.ID).Error
	if reloaded.StatusID != enCours.ID {
		t.Fatalf("denormalized status not updated")
	}
}

func TestTransitionUserStatusCacheMatchesHistory(t *testing.T) {
	conn := setupTestDB(t, t.Name())
	user := seedUser(t, conn, "u@lalana.mg")

	if last, _ := LastUserStatus(conn, user.ID); last != -1 {
		t.Fatalf("expected -1 without history, got %d", last)
	}

	if _, err := TransitionUserStatus(conn, user.ID, models.UserBlocked, time.Now(), true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := TransitionUserStatus(conn, user.ID, models.UserUnblocked, time.Now().Add(time.Second), false); err != nil {
		t.Fatalf("deblock: %v", err)
	}

	var reloaded models.User
	_ = conn.First(&reloaded, user.ID).Error
	last, err := LastUserStatus(conn, user.ID)
	if err != nil {
		t.Fatalf("last status: %v", err)
	}
	if reloaded.CurrentStatus != last {
		t.Fatalf("cache (%d) désaccordé de l'historique (%d)", reloaded.CurrentStatus, last)
	}
	if reloaded.SyncedOutward {
		t.Fatalf("deblock must reset synced_outward")
	}
	var count int64
	_ = conn.Model(&models.UserHistory{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 history rows got %d", count)
	}
}
