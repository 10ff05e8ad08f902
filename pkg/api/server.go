// Package api exposes the relay over REST: key registration, order
// submission, trade history.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradevault/relay/pkg/executor"
	"github.com/tradevault/relay/pkg/storage"
	"github.com/tradevault/relay/pkg/vault"
	"github.com/tradevault/relay/pkg/venue"
)

// Server routes HTTP requests to the relay components.
type Server struct {
	router *mux.Router
	vault  *vault.Vault
	store  *storage.Store
	exec   *executor.Executor
	log    *zap.SugaredLogger
}

// NewServer wires the REST surface.
func NewServer(v *vault.Vault, store *storage.Store, exec *executor.Executor, log *zap.SugaredLogger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		vault:  v,
		store:  store,
		exec:   exec,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users/{id}/key", s.handleRegisterKey).Methods("POST")
	api.HandleFunc("/users/{id}/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/users/{id}/trades", s.handleGetTrades).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full handler with CORS applied.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Start serves HTTP on addr, blocking.
func (s *Server) Start(addr string) error {
	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleRegisterKey encrypts and stores a user's private key. Only the
// encrypted triple is persisted.
func (s *Server) handleRegisterKey(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req RegisterKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.PrivateKey == "" {
		respondError(w, http.StatusBadRequest, "privateKey is required", "")
		return
	}

	encrypted, err := s.vault.Encrypt(req.PrivateKey)
	if err != nil {
		s.log.Errorw("key_encrypt_failed", "user_id", userID, "err", err)
		respondError(w, http.StatusInternalServerError, "encryption failed", "")
		return
	}
	if err := s.store.SaveEncryptedKey(userID, encrypted); err != nil {
		s.log.Errorw("key_store_failed", "user_id", userID, "err", err)
		respondError(w, http.StatusInternalServerError, "storage failed", "")
		return
	}

	s.log.Infow("key_registered", "user_id", userID)
	respondJSON(w, map[string]bool{"stored": true})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}
	size, err := decimal.NewFromString(req.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid size", err.Error())
		return
	}

	encryptedKey, found, err := s.store.LoadEncryptedKey(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage failed", "")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no key registered for user", "")
		return
	}

	order := executor.MarketOrder{
		TokenID: req.TokenID,
		Price:   price,
		Size:    size,
		Side:    venue.Side(req.Side),
		Market:  req.Market,
	}

	result, err := s.exec.ExecuteOrder(r.Context(), encryptedKey, order, userID)
	if err != nil {
		s.respondOrderError(w, userID, err)
		return
	}
	respondJSON(w, result)
}

// respondOrderError maps pipeline errors to distinct, actionable
// responses rather than one generic failure.
func (s *Server) respondOrderError(w http.ResponseWriter, userID string, err error) {
	var apiErr *venue.APIError
	var unknown *venue.OutcomeUnknownError

	switch {
	case errors.Is(err, executor.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
	case errors.Is(err, vault.ErrMalformedSecret), errors.Is(err, vault.ErrAuthentication):
		// Never echo decrypt details to the client.
		s.log.Errorw("credential_decrypt_failed", "user_id", userID, "err", err)
		respondError(w, http.StatusConflict, "stored credential unusable", "")
	case errors.As(err, &unknown):
		s.log.Errorw("order_outcome_unknown", "user_id", userID, "err", err)
		respondError(w, http.StatusGatewayTimeout, "order outcome unknown", "the venue may have accepted the order")
	case errors.As(err, &apiErr):
		s.log.Warnw("venue_error", "user_id", userID, "status", apiErr.Status, "err", err)
		respondError(w, http.StatusBadGateway, "venue rejected order", apiErr.Error())
	default:
		s.log.Errorw("order_failed", "user_id", userID, "err", err)
		respondError(w, http.StatusInternalServerError, "order failed", "")
	}
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	trades, err := s.store.LoadRecentTrades(userID, 100)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage failed", "")
		return
	}
	if trades == nil {
		trades = []storage.TradeRecord{}
	}
	respondJSON(w, trades)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details})
}
