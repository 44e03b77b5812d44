package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/quangtn/voicelink/internal/model"
	"github.com/quangtn/voicelink/internal/repository"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newContactRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Contact{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	h := NewContactHandler(repository.NewContactRepository(db))
	r := gin.New()
	r.GET("/contacts", h.ListContacts)
	r.POST("/contacts", h.CreateContact)
	r.PUT("/contacts/:peer_id", h.UpdateContact)
	r.DELETE("/contacts/:id", h.DeleteContact)
	return r
}

func TestContactEndpoints(t *testing.T) {
	r := newContactRouter(t)

	w := doRequest(t, r, http.MethodPost, "/contacts", `{"peer_id":"alice","name":"Alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodPost, "/contacts", `{"name":"No Peer"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create without peer_id status = %d, want 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPut, "/contacts/alice", `{"favorite":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	var updated model.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.Favorite || updated.Name != "Alice" {
		t.Errorf("updated contact = %+v", updated)
	}

	w = doRequest(t, r, http.MethodPut, "/contacts/nobody", `{"favorite":true}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing contact status = %d, want 404", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/contacts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var contacts []model.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &contacts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("list = %d contacts, want 1", len(contacts))
	}
}
