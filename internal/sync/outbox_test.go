package sync

import (
	"context"
	"testing"
	"time"

	"github.com/projet-lalana/backend/internal/docstore"
)

func TestRecordIntentWritesReadyDocument(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	ob := NewOutbox(store)
	fixed := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ob.now = func() time.Time { return fixed }

	ok := ob.RecordIntent(ctx, ReportCreatedIntent(5, "3", longPushToken, "nid-de-poule"))
	if !ok {
		t.Fatalf("expected intent recorded")
	}

	wantID := "REPORT_5_CREATED_1785578400000"
	data, exists, err := store.Get(ctx, docstore.CollectionNotifications, wantID)
	if err != nil || !exists {
		t.Fatalf("intent document %s absent (err=%v)", wantID, err)
	}
	if data["status"] != "READY" {
		t.Fatalf("expected status READY got %v", data["status"])
	}
	if data["retryCount"] != 0 {
		t.Fatalf("expected retryCount 0 got %v", data["retryCount"])
	}
	if data["entityId"] != int64(5) {
		t.Fatalf("expected entityId 5 got %v", data["entityId"])
	}
	if data["userToken"] != longPushToken {
		t.Fatalf("unexpected userToken %v", data["userToken"])
	}
}

func TestRecordIntentRejectsIncompleteAddressing(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	ob := NewOutbox(store)

	if ob.RecordIntent(ctx, Intent{Type: IntentTypeReport, EntityID: 1, Action: ActionCreated, UserID: "3"}) {
		t.Fatalf("expected false without token")
	}
	if ob.RecordIntent(ctx, Intent{Type: IntentTypeReport, EntityID: 1, Action: ActionCreated, UserToken: longPushToken}) {
		t.Fatalf("expected false without user id")
	}
	if store.Count(docstore.CollectionNotifications) != 0 {
		t.Fatalf("no document should be written on rejection")
	}
}

func TestRecordIntentStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.FailWith = func(op, collection, id string) error {
		return context.DeadlineExceeded
	}
	ob := NewOutbox(store)
	if ob.RecordIntent(ctx, ReportCreatedIntent(1, "3", longPushToken, "d")) {
		t.Fatalf("expected false when the store write fails")
	}
}

func TestWorkItemResolvedIntentMessage(t *testing.T) {
	intent := WorkItemResolvedIntent(9, "4", longPushToken, "chaussée affaissée")
	if intent.Action != ActionResolved || intent.Type != IntentTypeWorkItem {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if intent.Message != "Le problème signalé a été résolu: chaussée affaissée" {
		t.Fatalf("unexpected message %q", intent.Message)
	}
	// sans description, le message générique suffit
	intent = WorkItemResolvedIntent(9, "4", longPushToken, "")
	if intent.Message != "Le problème signalé a été résolu" {
		t.Fatalf("unexpected message %q", intent.Message)
	}
}
