package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/phishguard/phishguard/internal/utils"
)

// handleWarningPage renders the terminal warning surface for a blocked tab.
// The tab's block record is the source of truth: the navigation URL at this
// point is the warning page itself, not the blocked target.
func (s *Server) handleWarningPage(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.ParseInt(r.URL.Query().Get("tab"), 10, 64)
	if err != nil {
		http.Error(w, "invalid tab id", http.StatusBadRequest)
		return
	}

	rec, err := s.DB.GetBlockRecord(r.Context(), tabID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		// Block already overridden or never existed; nothing to warn about.
		http.Redirect(w, r, s.FallbackURL, http.StatusFound)
		return
	}

	s.Guard.NavigationComplete(tabID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.warningTmpl.Execute(w, rec); err != nil {
		utils.Log.Errorf("warning page render failed: %v", err)
	}
}

type warningActionRequest struct {
	TabID int64 `json:"tab_id"`
}

// handleWarningBack is "return to safety": the block record stays in place
// until an explicit override, so reopening the warning page keeps working.
func (s *Server) handleWarningBack(w http.ResponseWriter, r *http.Request) {
	var req warningActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"url": s.FallbackURL})
}

// handleWarningProceed is the explicit override: it deletes the block record
// and returns the original URL. The client-side confirmation step happens on
// the warning page before this is called.
func (s *Server) handleWarningProceed(w http.ResponseWriter, r *http.Request) {
	var req warningActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	original, err := s.Guard.Override(r.Context(), req.TabID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"url": original})
}
