package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/prenos/internal/db"
	"github.com/erazemk/prenos/internal/model"
	"github.com/erazemk/prenos/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

func createTestUser(t *testing.T, database *sql.DB, username, role string, branchID *int64) {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), role, branchID); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
}

func login(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed for %s: %d", username, resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
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

func doJSON(t *testing.T, req *http.Request, wantStatus int, target any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("%s %s: expected %d, got %d (%s)", req.Method, req.URL.Path, wantStatus, resp.StatusCode, errResp["error"])
	}
	if target != nil {
		json.NewDecoder(resp.Body).Decode(target)
	}
}

// seedStock creates two branches with users, one variant, and stock at the
// first branch. Returns ids for the branches and variant.
func seedStock(t *testing.T, database *sql.DB, quantity int) (int64, int64, int64) {
	t.Helper()
	ctx := context.Background()

	from, err := store.CreateBranch(ctx, database, "Ljubljana", "Ljubljana")
	if err != nil {
		t.Fatalf("creating branch: %v", err)
	}
	to, err := store.CreateBranch(ctx, database, "Maribor", "Maribor")
	if err != nil {
		t.Fatalf("creating branch: %v", err)
	}

	variant, err := store.CreateVariant(ctx, database, "PH-BLK-128", "Phone Black 128GB", "color=black,storage=128")
	if err != nil {
		t.Fatalf("creating variant: %v", err)
	}

	if quantity > 0 {
		if err := store.AddStock(ctx, database, variant.ID, from.ID, quantity, nil); err != nil {
			t.Fatalf("adding stock: %v", err)
		}
	}

	createTestUser(t, database, "sender", model.RoleUser, &from.ID)
	createTestUser(t, database, "receiver", model.RoleUser, &to.ID)

	return from.ID, to.ID, variant.ID
}

func TestLoginEndpoint(t *testing.T) {
	server, database := setupTestServer(t)
	createTestUser(t, database, "admin", model.RoleAdmin, nil)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	login(t, server, "admin")
}

func TestLogoutRevokesToken(t *testing.T) {
	server, database := setupTestServer(t)
	createTestUser(t, database, "admin", model.RoleAdmin, nil)
	token := login(t, server, "admin")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTransferLifecycleOverHTTP(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")
	receiverToken := login(t, server, "receiver")

	// Sender requests a transfer of 4 units.
	req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"variant_id":     variant,
		"quantity":       4,
	})
	var transfer model.Transfer
	doJSON(t, req, http.StatusCreated, &transfer)
	if transfer.Status != model.StatusPending {
		t.Fatalf("expected pending transfer, got %s", transfer.Status)
	}

	// Creation reserved stock at the source.
	entry, _ := store.GetLedgerEntry(context.Background(), database, variant, from)
	if entry.Quantity != 10 || entry.Reserved != 4 {
		t.Errorf("expected 10/4 at source after create, got %d/%d", entry.Quantity, entry.Reserved)
	}

	// The receiving branch approves and completes.
	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/approve", receiverToken, nil)
	doJSON(t, req, http.StatusOK, &transfer)
	if transfer.Status != model.StatusApproved {
		t.Fatalf("expected approved, got %s", transfer.Status)
	}

	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/complete", receiverToken, nil)
	doJSON(t, req, http.StatusOK, &transfer)
	if transfer.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", transfer.Status)
	}

	// Stock moved.
	src, _ := store.GetLedgerEntry(context.Background(), database, variant, from)
	dst, _ := store.GetLedgerEntry(context.Background(), database, variant, to)
	if src.Quantity != 6 || src.Reserved != 0 {
		t.Errorf("expected 6/0 at source after complete, got %d/%d", src.Quantity, src.Reserved)
	}
	if dst == nil || dst.Quantity != 4 {
		t.Errorf("expected 4 at destination after complete, got %+v", dst)
	}

	// Completing again is a conflict, not a second stock move.
	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/complete", receiverToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for double complete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTransferPermissionAsymmetry(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")
	receiverToken := login(t, server, "receiver")

	req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"variant_id":     variant,
		"quantity":       2,
	})
	var transfer model.Transfer
	doJSON(t, req, http.StatusCreated, &transfer)

	// The sending branch cannot approve its own request.
	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/approve", senderToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for sender approving, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The receiving branch cannot cancel the sender's request.
	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/cancel", receiverToken, map[string]string{"reason": "nope"})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for receiver cancelling, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBatchEndpoints(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")
	receiverToken := login(t, server, "receiver")

	req, _ := authRequest("POST", server.URL+"/api/transfers/batch", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"items": []map[string]any{
			{"variant_id": variant, "quantity": 2},
			{"variant_id": variant, "quantity": 3},
		},
	})
	var created struct {
		Batch     model.Batch      `json:"batch"`
		Transfers []model.Transfer `json:"transfers"`
	}
	doJSON(t, req, http.StatusCreated, &created)
	if len(created.Transfers) != 2 {
		t.Fatalf("expected 2 transfers in batch, got %d", len(created.Transfers))
	}

	// Bulk-approve both members as the receiver.
	ids := []int64{created.Transfers[0].ID, created.Transfers[1].ID}
	req, _ = authRequest("POST", server.URL+"/api/transfers/bulk/approve", receiverToken, map[string]any{"ids": ids})
	var results []bulkResult
	doJSON(t, req, http.StatusOK, &results)
	for _, res := range results {
		if !res.OK {
			t.Errorf("bulk approve failed for %d: %s", res.ID, res.Error)
		}
	}

	// Fetch the batch with its members.
	req, _ = authRequest("GET", server.URL+"/api/batches/"+created.Batch.ID, receiverToken, nil)
	var fetched struct {
		Batch     model.Batch      `json:"batch"`
		Transfers []model.Transfer `json:"transfers"`
	}
	doJSON(t, req, http.StatusOK, &fetched)
	if len(fetched.Transfers) != 2 {
		t.Errorf("expected 2 batch members, got %d", len(fetched.Transfers))
	}
	for _, tr := range fetched.Transfers {
		if tr.Status != model.StatusApproved {
			t.Errorf("expected approved member, got %s", tr.Status)
		}
	}
}

func TestGetUnknownBatchNotFound(t *testing.T) {
	server, database := setupTestServer(t)
	createTestUser(t, database, "admin", model.RoleAdmin, nil)
	token := login(t, server, "admin")

	req, _ := authRequest("GET", server.URL+"/api/batches/no-such-batch", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown batch, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBulkContinuesPastFailures(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")
	receiverToken := login(t, server, "receiver")

	req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"variant_id":     variant,
		"quantity":       2,
	})
	var transfer model.Transfer
	doJSON(t, req, http.StatusCreated, &transfer)

	// One valid id and one unknown id: the valid one still goes through.
	req, _ = authRequest("POST", server.URL+"/api/transfers/bulk/approve", receiverToken, map[string]any{
		"ids": []int64{99999, transfer.ID},
	})
	var results []bulkResult
	doJSON(t, req, http.StatusOK, &results)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].OK || results[0].Error == "" {
		t.Errorf("expected failure for unknown id, got %+v", results[0])
	}
	if !results[1].OK || results[1].Transfer.Status != model.StatusApproved {
		t.Errorf("expected approval for valid id, got %+v", results[1])
	}
}

func TestBulkRoutesResolve(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")
	receiverToken := login(t, server, "receiver")

	req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"variant_id":     variant,
		"quantity":       1,
	})
	var transfer model.Transfer
	doJSON(t, req, http.StatusCreated, &transfer)

	// Each bulk route must coexist with the per-id transition routes: the
	// literal "bulk" segment takes precedence over the {id} wildcard. Every
	// call acts as the wrong side so the item fails without changing state,
	// proving the route resolved and dispatched.
	wrongSide := map[string]string{
		"reject":   senderToken,
		"ship":     receiverToken,
		"complete": senderToken,
		"cancel":   receiverToken,
	}
	for event, token := range wrongSide {
		req, _ = authRequest("POST", server.URL+"/api/transfers/bulk/"+event, token, map[string]any{
			"ids": []int64{transfer.ID},
		})
		var results []bulkResult
		doJSON(t, req, http.StatusOK, &results)
		if len(results) != 1 || results[0].OK {
			t.Errorf("bulk %s: expected one per-item failure, got %+v", event, results)
		}
	}

	// An unknown bulk event matches no route.
	req, _ = authRequest("POST", server.URL+"/api/transfers/bulk/frobnicate", receiverToken, map[string]any{
		"ids": []int64{transfer.ID},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown bulk event, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The per-id routes still resolve alongside the bulk ones.
	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/approve", receiverToken, nil)
	doJSON(t, req, http.StatusOK, &transfer)
	if transfer.Status != model.StatusApproved {
		t.Errorf("expected approved via per-id route, got %s", transfer.Status)
	}
}

func TestTransferListAndStats(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)

	senderToken := login(t, server, "sender")

	for _, qty := range []int{1, 2} {
		req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
			"from_branch_id": from,
			"to_branch_id":   to,
			"variant_id":     variant,
			"quantity":       qty,
		})
		doJSON(t, req, http.StatusCreated, nil)
	}

	req, _ := authRequest("GET", server.URL+"/api/transfers?direction=sent", senderToken, nil)
	var transfers []model.Transfer
	doJSON(t, req, http.StatusOK, &transfers)
	if len(transfers) != 2 {
		t.Errorf("expected 2 sent transfers, got %d", len(transfers))
	}

	req, _ = authRequest("GET", server.URL+"/api/transfers/stats", senderToken, nil)
	var stats store.TransferStats
	doJSON(t, req, http.StatusOK, &stats)
	if stats.Total != 2 || stats.Pending != 2 {
		t.Errorf("expected 2 pending of 2 total, got %+v", stats)
	}
}

func TestUserWithoutBranchCannotTransition(t *testing.T) {
	server, database := setupTestServer(t)
	from, to, variant := seedStock(t, database, 10)
	createTestUser(t, database, "floater", model.RoleUser, nil)

	senderToken := login(t, server, "sender")
	floaterToken := login(t, server, "floater")

	req, _ := authRequest("POST", server.URL+"/api/transfers", senderToken, map[string]any{
		"from_branch_id": from,
		"to_branch_id":   to,
		"variant_id":     variant,
		"quantity":       1,
	})
	var transfer model.Transfer
	doJSON(t, req, http.StatusCreated, &transfer)

	req, _ = authRequest("POST", server.URL+transferPath(transfer.ID)+"/approve", floaterToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for branchless user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/variants")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	server, database := setupTestServer(t)
	createTestUser(t, database, "user1", model.RoleUser, nil)
	token := login(t, server, "user1")

	// Regular user should not be able to create branches (manager+ required).
	req, _ := authRequest("POST", server.URL+"/api/branches", token, map[string]string{"name": "Celje"})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user creating branch, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Regular user should not access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInventoryEndpoints(t *testing.T) {
	server, database := setupTestServer(t)
	from, _, variant := seedStock(t, database, 0)
	createTestUser(t, database, "manager", model.RoleManager, nil)
	token := login(t, server, "manager")

	req, _ := authRequest("POST", server.URL+"/api/inventory/stock", token, map[string]any{
		"variant_id": variant,
		"branch_id":  from,
		"quantity":   7,
	})
	var entry model.LedgerEntry
	doJSON(t, req, http.StatusOK, &entry)
	if entry.Quantity != 7 || entry.Available != 7 {
		t.Errorf("expected 7 available after stock-in, got %+v", entry)
	}

	req, _ = authRequest("POST", server.URL+"/api/inventory/adjust", token, map[string]any{
		"variant_id": variant,
		"branch_id":  from,
		"delta":      -2,
		"notes":      "recount",
	})
	doJSON(t, req, http.StatusOK, &entry)
	if entry.Quantity != 5 {
		t.Errorf("expected 5 after adjustment, got %d", entry.Quantity)
	}
}

func transferPath(id int64) string {
	return "/api/transfers/" + strconv.FormatInt(id, 10)
}
