// Package api exposes the JSON API: inventory CRUD, the withdrawal
// workflow, history, the service catalog and user management.
package api

import (
	"database/sql"
	"net/http"

	"streamstock/internal/enhance"
	"streamstock/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, enhancer *enhance.Client) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	historyHandler := &HistoryHandler{DB: db}
	servicesHandler := &ServicesHandler{DB: db}
	withdrawHandler := &WithdrawHandler{DB: db}
	statsHandler := &StatsHandler{DB: db}
	enhanceHandler := &EnhanceHandler{Client: enhancer}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Inventory.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("DELETE /api/items", authMW(http.HandlerFunc(itemsHandler.Clear)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/toggle", authMW(http.HandlerFunc(itemsHandler.ToggleStatus)))

	// Withdrawal workflow.
	mux.Handle("GET /api/withdraw/options", authMW(http.HandlerFunc(withdrawHandler.Options)))
	mux.Handle("POST /api/withdraw/generate", authMW(http.HandlerFunc(withdrawHandler.Generate)))
	mux.Handle("POST /api/withdraw/commit", authMW(http.HandlerFunc(withdrawHandler.Commit)))

	// History.
	mux.Handle("GET /api/history", authMW(http.HandlerFunc(historyHandler.List)))
	mux.Handle("DELETE /api/history", authMW(http.HandlerFunc(historyHandler.Clear)))
	mux.Handle("DELETE /api/history/{id}", authMW(http.HandlerFunc(historyHandler.Delete)))

	// Service catalog.
	mux.Handle("GET /api/services", authMW(http.HandlerFunc(servicesHandler.List)))
	mux.Handle("PUT /api/services", authMW(http.HandlerFunc(servicesHandler.Replace)))
	mux.Handle("POST /api/services", authMW(http.HandlerFunc(servicesHandler.Add)))
	mux.Handle("DELETE /api/services/{name}", authMW(http.HandlerFunc(servicesHandler.Remove)))

	// Stats and alerts.
	mux.Handle("GET /api/stats", authMW(http.HandlerFunc(statsHandler.Get)))

	// Note enhancement.
	mux.Handle("POST /api/enhance", authMW(http.HandlerFunc(enhanceHandler.Enhance)))

	return mux
}
