package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"airline-admin/internal/logging"
	"airline-admin/internal/query"
	"airline-admin/internal/store"
)

// listingResponse is the JSON shape of the read-only listing API.
type listingResponse struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Page    pageResponse             `json:"page"`
}

type pageResponse struct {
	Requested  int  `json:"requested"`
	Effective  int  `json:"effective"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

func (s *Server) handleAPIListing(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	lister, err := s.stores.Listing(table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrUnknownTable) {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, err.Error())
		return
	}

	req := listRequestFromQuery(r)

	q := r.URL.Query()
	if attribute, term := q.Get("attribute"), q.Get("search"); attribute != "" && term != "" {
		operator := query.OpEqual
		if raw := q.Get("operator"); raw != "" {
			operator, err = query.ParseOperator(raw)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		req.Search = &store.SearchRequest{
			Attribute: attribute,
			Operator:  operator,
			Term:      term,
		}
	}

	listing, err := lister.List(r.Context(), req)
	if err != nil {
		if errors.Is(err, query.ErrUnknownAttribute) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.FromContext(r.Context()).Error("api listing failed",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
		writeJSONError(w, http.StatusInternalServerError, "database error")
		return
	}

	rows := listing.Rows
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, listingResponse{
		Columns: listing.Columns,
		Rows:    rows,
		Page: pageResponse{
			Requested:  listing.Page.Requested,
			Effective:  listing.Page.Number,
			TotalPages: listing.Page.TotalPages,
			HasPrev:    listing.Page.HasPrev,
			HasNext:    listing.Page.HasNext,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
