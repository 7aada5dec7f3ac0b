package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"streamstock/internal/auth"
	"streamstock/internal/db"
	"streamstock/internal/enhance"
	"streamstock/internal/model"
	"streamstock/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, enhance.NewClient("http://localhost", "", ""))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	// The token works before logout.
	req, _ := authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The same token is rejected afterwards.
	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Logging in again issues a fresh, working token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	loginResp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	var login map[string]string
	json.NewDecoder(loginResp.Body).Decode(&login)
	loginResp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items", login["token"], nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with fresh token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// Create item.
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"service":     "Netflix",
		"account":     "acc@mail.com",
		"credentials": "hunter2",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.InventoryItem
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.Status != model.StatusAvailable {
		t.Errorf("expected new item available, got %q", created.Status)
	}

	// Mixed-case partial search finds it.
	req, _ = authRequest("GET", server.URL+"/api/items?q=NeTf", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var items []model.InventoryItem
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Errorf("expected 1 search match, got %d", len(items))
	}

	// Toggle flips the status.
	req, _ = authRequest("POST", server.URL+"/api/items/"+created.ID+"/toggle", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var toggled model.InventoryItem
	json.NewDecoder(resp.Body).Decode(&toggled)
	resp.Body.Close()
	if toggled.Status != model.StatusUsed {
		t.Errorf("expected toggled item used, got %q", toggled.Status)
	}

	// Invalid status filter is rejected.
	req, _ = authRequest("GET", server.URL+"/api/items?status=bogus", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad status filter, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Updating a missing item is a 404.
	req, _ = authRequest("PUT", server.URL+"/api/items/no-such-id", token, map[string]any{
		"service": "Netflix", "account": "a@b.c", "credentials": "pw",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestWithdrawFlow(t *testing.T) {
	server, database, token := setupTestServer(t)

	createItem := func(account string) string {
		req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
			"service": "Netflix", "account": account, "credentials": "pw",
		})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("create item: %v", err)
		}
		defer resp.Body.Close()
		var item model.InventoryItem
		json.NewDecoder(resp.Body).Decode(&item)
		return item.ID
	}

	oldID := createItem("old@mail.com")
	newID := createItem("new@mail.com")
	// Force distinct ages so the candidate choice is observable.
	database.Exec(`UPDATE items SET created_at = 100 WHERE id = ?`, oldID)
	database.Exec(`UPDATE items SET created_at = 200 WHERE id = ?`, newID)

	// Options lists the service.
	req, _ := authRequest("GET", server.URL+"/api/withdraw/options", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var options struct {
		Names []string `json:"names"`
	}
	json.NewDecoder(resp.Body).Decode(&options)
	resp.Body.Close()
	if len(options.Names) != 1 || options.Names[0] != "Netflix" {
		t.Fatalf("expected [Netflix] offerable, got %v", options.Names)
	}

	// Generate picks the oldest item and does not touch stock.
	generate := func() (itemID string, version int64, message string) {
		req, _ := authRequest("POST", server.URL+"/api/withdraw/generate", token, map[string]any{
			"service": "Netflix",
		})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("generate: expected 200, got %d", resp.StatusCode)
		}
		var gen struct {
			ItemID  string `json:"item_id"`
			Version int64  `json:"version"`
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&gen)
		return gen.ItemID, gen.Version, gen.Message
	}

	itemID, version, message := generate()
	if itemID != oldID {
		t.Fatalf("expected oldest item %q selected, got %q", oldID, itemID)
	}
	if !strings.Contains(message, "old@mail.com") {
		t.Errorf("expected message to carry the account, got:\n%s", message)
	}

	// Regenerating is free: same candidate, unchanged stock.
	if again, _, _ := generate(); again != oldID {
		t.Fatalf("expected repeated generate to pick %q, got %q", oldID, again)
	}

	// Commit consumes the item and records history.
	req, _ = authRequest("POST", server.URL+"/api/withdraw/commit", token, map[string]any{
		"item_id": itemID, "version": version, "message": message,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("commit: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A second commit against the same version conflicts.
	req, _ = authRequest("POST", server.URL+"/api/withdraw/commit", token, map[string]any{
		"item_id": itemID, "version": version, "message": message,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for stale commit, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The next generate moves on to the newer item.
	if next, _, _ := generate(); next != newID {
		t.Errorf("expected next candidate %q, got %q", newID, next)
	}

	// History holds exactly one entry.
	req, _ = authRequest("GET", server.URL+"/api/history", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var entries []model.HistoryEntry
	json.NewDecoder(resp.Body).Decode(&entries)
	resp.Body.Close()
	if len(entries) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(entries))
	}
}

func TestWithdrawOutOfStock(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/withdraw/generate", token, map[string]any{
		"service": "Netflix",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for empty stock, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServicesAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// Defaults come back before any configuration.
	req, _ := authRequest("GET", server.URL+"/api/services", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var services struct {
		Names []string `json:"names"`
	}
	json.NewDecoder(resp.Body).Decode(&services)
	resp.Body.Close()
	if len(services.Names) != len(store.DefaultServices) {
		t.Fatalf("expected default catalog, got %v", services.Names)
	}

	// Add a custom service.
	req, _ = authRequest("POST", server.URL+"/api/services", token, map[string]string{"name": "Paramount+"})
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&services)
	resp.Body.Close()
	if services.Names[len(services.Names)-1] != "Paramount+" {
		t.Errorf("expected Paramount+ appended, got %v", services.Names)
	}

	// Remove one.
	req, _ = authRequest("DELETE", server.URL+"/api/services/Netflix", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&services)
	resp.Body.Close()
	for _, name := range services.Names {
		if name == "Netflix" {
			t.Errorf("expected Netflix removed, got %v", services.Names)
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"service": "Netflix", "account": "a@b.c", "credentials": "pw", "profiles": 4,
	})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/stats", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var stats struct {
		Total      int      `json:"total"`
		OutOfStock []string `json:"out_of_stock"`
	}
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()

	if stats.Total != 4 {
		t.Errorf("expected 4 remaining units, got %d", stats.Total)
	}
	// Every default service except Netflix is out of stock.
	if len(stats.OutOfStock) != len(store.DefaultServices)-1 {
		t.Errorf("expected %d out-of-stock services, got %v", len(store.DefaultServices)-1, stats.OutOfStock)
	}
}

func TestEnhanceUnconfigured(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/enhance", token, map[string]string{
		"existing_notes":   "premium plan",
		"item_description": "Netflix account",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an API key, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, enhance.NewClient("http://localhost", "", ""))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, enhance.NewClient("http://localhost", "", ""))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create a regular user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.DefaultCost)
	user, _ := store.CreateUser(ctx, database, "user1", string(hash), model.RoleUser)

	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleUser)

	// Regular users manage their own stock.
	req, _ := authRequest("POST", server.URL+"/api/items", userToken, map[string]any{
		"service": "Netflix", "account": "a@b.c", "credentials": "pw",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201 for user creating an item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// But user management is admin only.
	req, _ = authRequest("GET", server.URL+"/api/users", userToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInventoryIsScopedPerUser(t *testing.T) {
	server, database, token := setupTestServer(t)

	// Admin creates an item.
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"service": "Netflix", "account": "admin@mail.com", "credentials": "pw",
	})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	// A second user sees an empty inventory.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.DefaultCost)
	other, _ := store.CreateUser(ctx, database, "other", string(hash), model.RoleUser)
	otherToken, _ := auth.GenerateToken(testJWTSecret, other.ID, "other", model.RoleUser)

	req, _ = authRequest("GET", server.URL+"/api/items", otherToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	var items []model.InventoryItem
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 0 {
		t.Errorf("expected empty inventory for other user, got %d items", len(items))
	}
}
