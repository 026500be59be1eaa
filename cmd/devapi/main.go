// Command devapi serves the in-memory dashboard API for local development.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"dashboard/internal/apitest"
	"dashboard/internal/models"
)

func main() {
	srv := newServer(os.Getenv("JWT_SECRET"))
	if err := seedAdmin(srv, os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Fatalf("[devapi] seed admin: %v", err)
	}

	addr := ":" + envOr("PORT", "3001")
	hs := &http.Server{
		Addr:              addr,
		Handler:           setupRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Println("[devapi] listening on", addr)
	log.Fatal(hs.ListenAndServe())
}

func newServer(secret string) *apitest.Server {
	if secret == "" {
		secret = "dev-secret"
	}
	return apitest.New(secret)
}

func setupRouter(srv *apitest.Server) http.Handler {
	return srv.Routes()
}

// seedAdmin creates the admin account when a password is configured.
func seedAdmin(srv *apitest.Server, name, email, password string) error {
	if password == "" {
		return nil
	}
	if name == "" {
		name = "admin"
	}
	if email == "" {
		email = "admin@example.com"
	}
	u, err := srv.AddUser(name, email, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	log.Printf("[devapi] seeded admin %s <%s>", u.Name, u.Email)
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
