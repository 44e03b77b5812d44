package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/quangtn/voicelink/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Contact{}, &model.CallRecord{}, &model.Webhook{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestContactCRUD(t *testing.T) {
	repo := NewContactRepository(openTestDB(t))

	if err := repo.Create(&model.Contact{PeerID: "alice", Name: "Alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(&model.Contact{PeerID: "bob", Name: "Bob", Favorite: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	contacts, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("list returned %d contacts, want 2", len(contacts))
	}
	if contacts[0].PeerID != "bob" {
		t.Errorf("favorites should sort first, got %s", contacts[0].PeerID)
	}

	alice, err := repo.FindByPeerID("alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	alice.Favorite = true
	if err := repo.Update(alice); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := repo.Delete(alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByPeerID("alice"); err == nil {
		t.Fatal("deleted contact still found")
	}
}

func TestCallRecordListAndStats(t *testing.T) {
	repo := NewCallRecordRepository(openTestDB(t))

	base := time.Now().Add(-time.Hour)
	records := []model.CallRecord{
		{SessionID: "s1", PeerID: "alice", Direction: "outgoing", Outcome: "completed", StartedAt: base, TalkSeconds: 60},
		{SessionID: "s2", PeerID: "bob", Direction: "incoming", Outcome: "missed", StartedAt: base.Add(10 * time.Minute)},
		{SessionID: "s3", PeerID: "alice", Direction: "incoming", Outcome: "completed", StartedAt: base.Add(20 * time.Minute), TalkSeconds: 30},
	}
	for i := range records {
		if err := repo.Create(&records[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	recent, err := repo.ListRecent(10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent returned %d, want 3", len(recent))
	}
	if recent[0].SessionID != "s3" {
		t.Errorf("newest record should come first, got %s", recent[0].SessionID)
	}

	withAlice, err := repo.FindByPeerID("alice", 10)
	if err != nil {
		t.Fatalf("find by peer: %v", err)
	}
	if len(withAlice) != 2 {
		t.Fatalf("alice has %d records, want 2", len(withAlice))
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 2 || stats.Missed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TalkSeconds != 90 {
		t.Errorf("talk seconds = %d, want 90", stats.TalkSeconds)
	}
}

func TestWebhookFindByEvent(t *testing.T) {
	repo := NewWebhookRepository(openTestDB(t))

	hooks := []model.Webhook{
		{Event: "missed", URL: "http://one", Enabled: true},
		{Event: "ended", URL: "http://two", Enabled: true},
		{Event: "all", URL: "http://three", Enabled: true},
	}
	for i := range hooks {
		if err := repo.Create(&hooks[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	missed, err := repo.FindByEvent("missed")
	if err != nil {
		t.Fatalf("find by event: %v", err)
	}
	if len(missed) != 2 {
		t.Fatalf("missed hooks = %d, want 2 (missed + all)", len(missed))
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list = %d, want 3", len(all))
	}

	if err := repo.Delete(hooks[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	missed, _ = repo.FindByEvent("missed")
	if len(missed) != 1 {
		t.Fatalf("missed hooks after delete = %d, want 1", len(missed))
	}
}
