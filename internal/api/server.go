// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package api exposes the coordinator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/toeirei/walletkeeper/internal/core"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/metrics"
	"github.com/toeirei/walletkeeper/internal/ratelimit"
)

// maxBodyBytes bounds request bodies. Stellar envelopes are far smaller.
const maxBodyBytes = 256 << 10

// WalletService is the part of *core.Coordinator the API needs.
type WalletService interface {
	ProvisionWallet(ctx context.Context, userID string) (*core.WalletInfo, error)
	GetPublicKey(ctx context.Context, userID string) (*core.WalletInfo, error)
	SignTransaction(ctx context.Context, userID, tx string) (string, error)
}

// Options configures the router.
type Options struct {
	// APIKey is the operator key required on /api/v1. Required.
	APIKey string
	// Health reports store reachability for /health. Optional.
	Health func(ctx context.Context) error
	// Metrics is served on /metrics when set.
	Metrics *metrics.Recorder
	// IPLimiter limits /api/v1 requests per client address when set.
	IPLimiter *ratelimit.MapLimiter
	Logger    *clog.Logger
}

// SignRequest is the body of the sign endpoint.
type SignRequest struct {
	Transaction string `json:"transaction" validate:"required,base64"`
}

// SignResponse is returned by the sign endpoint.
type SignResponse struct {
	SignedTransaction string `json:"signed_transaction"`
}

// WalletHandler serves the wallet endpoints.
type WalletHandler struct {
	service  WalletService
	validate *validator.Validate
}

func NewWalletHandler(service WalletService) *WalletHandler {
	return &WalletHandler{service: service, validate: validator.New()}
}

// Provision handles POST /api/v1/wallets/{userID}.
func (h *WalletHandler) Provision(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.ProvisionWallet(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, info)
}

// Get handles GET /api/v1/wallets/{userID}.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetPublicKey(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, info)
}

// Sign handles POST /api/v1/wallets/{userID}/sign.
func (h *WalletHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, string(core.KindInvalidInput), "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		Error(w, http.StatusBadRequest, string(core.KindInvalidInput), "transaction must be a base64 XDR envelope")
		return
	}
	signed, err := h.service.SignTransaction(r.Context(), mux.Vars(r)["userID"], req.Transaction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, SignResponse{SignedTransaction: signed})
}

// NewRouter builds the HTTP handler.
func NewRouter(service WalletService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "api")
	}

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))

	r.HandleFunc("/health", healthHandler(opts.Health)).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	h := NewWalletHandler(service)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(opts.APIKey))
	api.Use(RateLimitMiddleware(opts.IPLimiter))
	api.HandleFunc("/wallets/{userID}", h.Provision).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{userID}", h.Get).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{userID}/sign", h.Sign).Methods(http.MethodPost)

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				Error(w, http.StatusServiceUnavailable, string(core.KindStorage), "store unreachable")
				return
			}
		}
		JSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "walletkeeper"})
	}
}

// Serve runs an http.Server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
