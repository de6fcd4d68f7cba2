package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/prenos/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	branchesHandler := &BranchesHandler{DB: db}
	variantsHandler := &VariantsHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Branches: read (all roles), write (manager+).
	mux.Handle("GET /api/branches", authMW(http.HandlerFunc(branchesHandler.List)))
	mux.Handle("POST /api/branches", authMW(requireManager(http.HandlerFunc(branchesHandler.Create))))
	mux.Handle("GET /api/branches/{id}", authMW(http.HandlerFunc(branchesHandler.Get)))
	mux.Handle("PUT /api/branches/{id}", authMW(requireManager(http.HandlerFunc(branchesHandler.Update))))
	mux.Handle("DELETE /api/branches/{id}", authMW(requireManager(http.HandlerFunc(branchesHandler.Delete))))
	mux.Handle("GET /api/branches/{id}/inventory", authMW(http.HandlerFunc(branchesHandler.Inventory)))

	// Variants: read (all roles), write (manager+).
	mux.Handle("GET /api/variants", authMW(http.HandlerFunc(variantsHandler.List)))
	mux.Handle("POST /api/variants", authMW(requireManager(http.HandlerFunc(variantsHandler.Create))))
	mux.Handle("GET /api/variants/{id}", authMW(http.HandlerFunc(variantsHandler.Get)))
	mux.Handle("PUT /api/variants/{id}", authMW(requireManager(http.HandlerFunc(variantsHandler.Update))))
	mux.Handle("DELETE /api/variants/{id}", authMW(requireManager(http.HandlerFunc(variantsHandler.Delete))))
	mux.Handle("GET /api/variants/{id}/distribution", authMW(http.HandlerFunc(variantsHandler.Distribution)))
	mux.Handle("PUT /api/variants/{id}/image", authMW(requireManager(http.HandlerFunc(variantsHandler.UploadImage))))
	mux.Handle("GET /api/variants/{id}/image", authMW(http.HandlerFunc(variantsHandler.GetImage)))

	// Transfers (all roles; the engine enforces which branch may act).
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("POST /api/transfers/batch", authMW(http.HandlerFunc(transfersHandler.CreateBatch)))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("GET /api/transfers/stats", authMW(http.HandlerFunc(transfersHandler.Stats)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/approve", authMW(http.HandlerFunc(transfersHandler.Approve)))
	mux.Handle("POST /api/transfers/{id}/reject", authMW(http.HandlerFunc(transfersHandler.Reject)))
	mux.Handle("POST /api/transfers/{id}/ship", authMW(http.HandlerFunc(transfersHandler.Ship)))
	mux.Handle("POST /api/transfers/{id}/complete", authMW(http.HandlerFunc(transfersHandler.Complete)))
	mux.Handle("POST /api/transfers/{id}/cancel", authMW(http.HandlerFunc(transfersHandler.Cancel)))
	mux.Handle("POST /api/transfers/bulk/approve", authMW(http.HandlerFunc(transfersHandler.BulkApprove)))
	mux.Handle("POST /api/transfers/bulk/reject", authMW(http.HandlerFunc(transfersHandler.BulkReject)))
	mux.Handle("POST /api/transfers/bulk/ship", authMW(http.HandlerFunc(transfersHandler.BulkShip)))
	mux.Handle("POST /api/transfers/bulk/complete", authMW(http.HandlerFunc(transfersHandler.BulkComplete)))
	mux.Handle("POST /api/transfers/bulk/cancel", authMW(http.HandlerFunc(transfersHandler.BulkCancel)))
	mux.Handle("GET /api/batches/{id}", authMW(http.HandlerFunc(transfersHandler.GetBatch)))

	// Inventory: read (all), write (manager+).
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("POST /api/inventory/stock", authMW(requireManager(http.HandlerFunc(inventoryHandler.AddStock))))
	mux.Handle("POST /api/inventory/adjust", authMW(requireManager(http.HandlerFunc(inventoryHandler.AdjustStock))))

	return mux
}
