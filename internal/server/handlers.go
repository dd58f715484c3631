package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardview/guardview/internal/analyzer"
	"github.com/guardview/guardview/internal/logger"
	"github.com/guardview/guardview/internal/models"
	"github.com/guardview/guardview/internal/storage"
)

// User-facing messages. Remote failures collapse into one generic
// message; only the empty-URL validation gets its own.
const (
	msgEmptyURL       = "Please enter a URL to analyze"
	msgAnalysisFailed = "Analysis failed. Please try again."
	msgInFlight       = "An analysis is already in progress"
	msgRateLimited    = "Too many requests, slow down"
)

const maxDigestBodyBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validation first: an empty URL never consumes a rate limit token
	// and never reaches the model.
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, msgEmptyURL)
		return
	}

	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, analyzer.ErrEmptyURL):
			writeError(w, http.StatusBadRequest, msgEmptyURL)
		case errors.Is(err, analyzer.ErrAnalysisInFlight):
			writeError(w, http.StatusConflict, msgInFlight)
		default:
			writeError(w, http.StatusBadGateway, msgAnalysisFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Panel is one entry in the dashboard shell's registry.
type Panel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Ready       bool   `json:"ready"`
}

func (s *Server) handlePanels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []Panel{
		{ID: "phishing", Title: "Phishing Checker", Description: "AI-assisted URL analysis", Ready: true},
		{ID: "network", Title: "Network Monitor", Description: "Simulated connection feed", Ready: true},
		{ID: "integrity", Title: "File Integrity", Description: "SHA-256 digest demo", Ready: true},
		{ID: "passwords", Title: "Password Manager", Description: "In-memory credential records", Ready: true},
		{ID: "login", Title: "Secure Login", Description: "bcrypt login demo", Ready: true},
		{ID: "about", Title: "About", Description: "Build information", Ready: true},
	})
}

func (s *Server) handleListCredentials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.credentials.List())
}

func (s *Server) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	var cred models.Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(cred.Site) == "" {
		writeError(w, http.StatusBadRequest, "site must not be empty")
		return
	}

	stored, err := s.credentials.Add(&cred)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "a credential with this id already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not store credential")
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.credentials.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNetworkEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": s.monitor.Events(),
	})
}

type digestResponse struct {
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
	Size      int    `json:"size"`
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDigestBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read content")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "content must not be empty")
		return
	}

	sum := sha256.Sum256(data)
	writeJSON(w, http.StatusOK, digestResponse{
		Algorithm: "SHA-256",
		Digest:    hex.EncodeToString(sum[:]),
		Size:      len(data),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Uniform failure for wrong user and wrong password.
	if req.Username != s.cfg.Login.Username ||
		bcrypt.CompareHashAndPassword(s.loginHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := uuid.NewString()
	s.log.Info("demo login succeeded", logger.Str("username", req.Username))
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.build)
}
