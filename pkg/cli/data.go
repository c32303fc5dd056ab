package cli

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/coderunners/reprod/pkg/data"
	"github.com/coderunners/reprod/pkg/scorecard"
)

const arraySelector = "|"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamFloat(r *http.Request, key string, def float64) float64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Error("error converting query string to float", "value", v, "error", err)
		return def
	}

	if f < 0 || f > 100 {
		return def
	}

	return f
}

func queryParamList(r *http.Request, key string) []string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, s := range strings.Split(v, arraySelector) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseSearchCriteria(r *http.Request) *data.PaperSearchCriteria {
	return &data.PaperSearchCriteria{
		MinScore:    queryParamFloat(r, "min", 0),
		Statuses:    queryParamList(r, "status"),
		Conferences: queryParamList(r, "conf"),
		Query:       r.URL.Query().Get("q"),
		Limit:       queryResultLimitDefault,
	}
}

// PapersResponse is the browse payload: visible papers, the fallback
// flag, and the selection resolved against the visible subset.
type PapersResponse struct {
	Papers   []*scorecard.Paper `json:"papers"`
	Count    int                `json:"count"`
	FellBack bool               `json:"fell_back"`
	Selected string             `json:"selected,omitempty"`
	Views    map[string]bool    `json:"views,omitempty"`
}

func papersAPIHandler(db *sql.DB, sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := parseSearchCriteria(r)
		slog.Debug("paper search", "min", q.MinScore, "statuses", q.Statuses,
			"conferences", q.Conferences, "query", q.Query)

		papers, fellBack, err := data.SearchPapersWithFallback(db, q)
		if err != nil {
			slog.Error("failed to search papers", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying papers")
			return
		}

		s := sessions.Get(w, r)

		writeJSON(w, http.StatusOK, &PapersResponse{
			Papers:   papers,
			Count:    len(papers),
			FellBack: fellBack,
			Selected: s.Resolve(papers),
			Views:    s.Views(),
		})
	}
}

func paperDetailAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id parameter required")
			return
		}

		p, err := data.GetPaper(db, id)
		if err != nil {
			slog.Error("failed to get paper", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error querying paper")
			return
		}

		if p == nil {
			writeError(w, http.StatusNotFound, "paper not found")
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

// FiltersResponse lists the distinct values the filter widgets offer.
type FiltersResponse struct {
	Statuses    []string `json:"statuses"`
	Conferences []string `json:"conferences"`
}

func filtersAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := data.GetStatuses(db)
		if err != nil {
			slog.Error("failed to get statuses", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying statuses")
			return
		}

		conferences, err := data.GetConferences(db)
		if err != nil {
			slog.Error("failed to get conferences", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying conferences")
			return
		}

		writeJSON(w, http.StatusOK, &FiltersResponse{
			Statuses:    statuses,
			Conferences: conferences,
		})
	}
}

func repoMetaAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id parameter required")
			return
		}

		m, err := data.GetRepoMeta(db, id)
		if err != nil {
			slog.Error("failed to get repo metadata", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error querying repo metadata")
			return
		}

		if m == nil {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}

		writeJSON(w, http.StatusOK, m)
	}
}

type selectRequest struct {
	ID string `json:"id"`
}

func selectAPIHandler(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("error binding json", "error", err)
			writeError(w, http.StatusBadRequest, "error binding json")
			return
		}

		s := sessions.Get(w, r)
		s.Select(req.ID)

		writeJSON(w, http.StatusOK, map[string]string{"selected": req.ID})
	}
}

type viewRequest struct {
	Key string `json:"key"`
	On  bool   `json:"on"`
}

func viewAPIHandler(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("error binding json", "error", err)
			writeError(w, http.StatusBadRequest, "error binding json")
			return
		}

		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "key required")
			return
		}

		s := sessions.Get(w, r)
		s.SetView(req.Key, req.On)

		writeJSON(w, http.StatusOK, s.Views())
	}
}

func insightsSummaryAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetSummary(db)
		if err != nil {
			slog.Error("failed to get summary", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying summary")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func insightsScoreDistributionAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetScoreDistribution(db)
		if err != nil {
			slog.Error("failed to get score distribution", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying score distribution")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func insightsStatusBreakdownAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetStatusBreakdown(db)
		if err != nil {
			slog.Error("failed to get status breakdown", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying status breakdown")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
