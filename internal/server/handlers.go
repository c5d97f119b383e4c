package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/pkg/inspect"
	"github.com/phishguard/phishguard/pkg/scoring"
	"github.com/phishguard/phishguard/pkg/storage"
	"github.com/phishguard/phishguard/pkg/verdict"
)

type NavigateRequest struct {
	TabID     int64  `json:"tab_id"`
	URL       string `json:"url"`
	MainFrame bool   `json:"main_frame"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url field missing", http.StatusBadRequest)
		return
	}

	decision := s.Guard.HandleNavigation(r.Context(), req.TabID, req.URL, req.MainFrame)

	// Record freshly scored guard verdicts in history, best effort.
	if decision.Verdict != nil && !decision.FromCache && !decision.Stale {
		rec := storage.ScanRecord{
			URL:               req.URL,
			Classification:    string(decision.Verdict.Classification),
			ConfidencePercent: decision.Verdict.ConfidencePercent,
			RiskLevel:         string(decision.Verdict.RiskLevel),
			Source:            "guard",
		}
		if err := s.DB.AddScan(r.Context(), rec); err != nil {
			utils.Log.Warnf("history write failed: %v", err)
		}
	}

	json.NewEncoder(w).Encode(decision)
}

type completeRequest struct {
	TabID int64 `json:"tab_id"`
}

func (s *Server) handleNavigationComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Guard.NavigationComplete(req.TabID)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleTabClosed(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Guard.TabClosed(r.Context(), req.TabID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.ParseInt(r.URL.Query().Get("tab"), 10, 64)
	if err != nil {
		http.Error(w, "invalid tab id", http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"tab_id": tabID,
		"state":  s.Guard.Badge(tabID),
	})
}

type ScanRequest struct {
	URL string `json:"url"`
}

// ScanResponse is the manual scan result. Unlike the guard path, errors are
// surfaced to the caller as a retryable failure instead of failing open.
type ScanResponse struct {
	*verdict.Verdict
	Lexical *inspect.LexicalReport `json:"lexical,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url field missing", http.StatusBadRequest)
		return
	}

	v, err := s.Scorer.Scan(r.Context(), req.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, scoring.ErrMalformed) {
			status = http.StatusUnprocessableEntity
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "retryable": true})
		return
	}

	rec := storage.ScanRecord{
		URL:               req.URL,
		Classification:    string(v.Classification),
		ConfidencePercent: v.ConfidencePercent,
		RiskLevel:         string(v.RiskLevel),
		Source:            "manual",
	}
	if err := s.DB.AddScan(r.Context(), rec); err != nil {
		utils.Log.Warnf("history write failed: %v", err)
	}

	resp := ScanResponse{Verdict: v}
	if v.Degraded {
		lex := inspect.Lexical(req.URL)
		resp.Lexical = &lex
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.DB.ListHistory(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}
