package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmroczek/PayVault/internal/auth"
	database "github.com/jmroczek/PayVault/internal/db"
	"github.com/jmroczek/PayVault/internal/payment/application"
	"github.com/jmroczek/PayVault/internal/payment/gateway"
	"github.com/jmroczek/PayVault/internal/payment/infrastructure"
	"github.com/jmroczek/PayVault/internal/payment/interfaces"
	"github.com/jmroczek/PayVault/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router      *http.ServeMux
	authHandler *auth.Handler
	userHandler *user.Handler
	cardHandler *interfaces.CardHandler
	dbService   *database.DBService
}

func NewServer(authHandler *auth.Handler, userHandler *user.Handler, cardHandler *interfaces.CardHandler, dbService *database.DBService) *Server {
	return &Server{
		authHandler: authHandler,
		userHandler: userHandler,
		cardHandler: cardHandler,
		dbService:   dbService,
		router:      http.NewServeMux(),
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("DB_CONNECTION_STRING") == "" {
		return errors.New("no DB_CONNECTION_STRING provided")
	}
	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		return errors.New("no STRIPE_SECRET_KEY provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	health := s.dbService.Health()
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}

func (s *Server) RegisterRoutes() {
	router := http.NewServeMux()

	router.Handle("POST /api/auth/signin", http.HandlerFunc(s.authHandler.HandleSignIn))
	router.Handle("POST /api/auth/change-password", http.HandlerFunc(s.userHandler.HandleChangePassword))

	router.Handle("POST /api/setup-intent", http.HandlerFunc(s.cardHandler.HandleCreateSetupIntent))
	router.Handle("GET /api/saved-cards", http.HandlerFunc(s.cardHandler.HandleListSavedCards))
	router.Handle("POST /api/saved-cards", http.HandlerFunc(s.cardHandler.HandleSaveCard))
	router.Handle("DELETE /api/saved-cards", http.HandlerFunc(s.cardHandler.HandleDeleteSavedCard))
	router.Handle("GET /api/saved-cards/reconciliation", http.HandlerFunc(s.cardHandler.HandleReconciliation))

	router.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	router.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = router
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server: %v", err)
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	stripeClient := gateway.NewStripeClient(os.Getenv("STRIPE_SECRET_KEY"))

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)
	userHandler := user.NewHandler(userService)

	authService := auth.NewAuthService(userService)
	authHandler := auth.NewHandler(authService)

	cardRepo := infrastructure.NewCardRepository(dbService.DB)
	cardService := application.NewCardService(userService, cardRepo, stripeClient)
	cardHandler := interfaces.NewCardHandler(cardService, respondJSON, respondError)

	server := NewServer(authHandler, userHandler, cardHandler, dbService)
	server.RegisterRoutes()

	handler := loggingMiddleware(server.router)
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
