package web

import (
	"context"
	"fmt"
	"net/http"

	"airline-admin/internal/query"
	"airline-admin/internal/store"
)

// serveListing runs the paginated listing flow shared by the users and
// tickets pages: a database failure flashes errMsg over an empty table,
// an out-of-range page bounces to the clamped one, anything else renders.
func (s *Server) serveListing(w http.ResponseWriter, r *http.Request, table, keyCol, title, errMsg string, lister store.Lister) {
	listing, err := lister.List(r.Context(), listRequestFromQuery(r))
	if err != nil {
		s.flash(r, errMsg)
		s.renderListing(w, r, s.page(w, r, title, table), table, keyCol, nil)
		return
	}

	if target, ok := clampedTarget(table, listing); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	s.renderListing(w, r, s.page(w, r, title, table), table, keyCol, listing)
}

// serveSingle renders the listing narrowed to one key value. raw is the
// key as the URL spelled it, for the flash message; key is the typed
// value to match, nil when raw did not parse. A failed lookup and a
// missing row read the same to the user: the page flashes that nothing
// matched and shows an empty table.
func (s *Server) serveSingle(w http.ResponseWriter, r *http.Request, table, keyCol, title, raw string, key interface{}, lister store.Lister) {
	var listing *store.Listing

	if key != nil {
		var err error
		listing, err = lister.List(r.Context(), store.ListRequest{
			Page: 1,
			Search: &store.SearchRequest{
				Attribute: keyCol,
				Operator:  query.OpEqual,
				Term:      key,
			},
		})
		if err != nil {
			listing = nil
		}
	}

	if listing == nil || len(listing.Rows) == 0 {
		s.flash(r, fmt.Sprintf(
			"Error, there are no rows in %s that match the attribute '%s' for the value %s",
			table, keyCol, raw,
		))
	}

	s.renderListing(w, r, s.page(w, r, title, table), table, keyCol, listing)
}

// serveResultTable renders an unpaginated query result, used by the
// consolidated and stats pages. A failure flashes errMsg over an empty
// table.
func (s *Server) serveResultTable(w http.ResponseWriter, r *http.Request, title, active, errMsg string, fetch func(context.Context) (*query.ResultSet, error)) {
	result, err := fetch(r.Context())
	if err != nil {
		s.flash(r, errMsg)
		result = nil
	}
	s.renderTable(w, r, s.page(w, r, title, active), result)
}

// serveSearch runs the posted search: a regex match of searchterm against
// the searchfield column. Failures and empty matches both land back on
// the index page with their own flash; hits render as a listing.
func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request, table, keyCol, title string, lister store.Lister) {
	field := r.PostFormValue("searchfield")
	term := r.PostFormValue("searchterm")

	listing, err := lister.List(r.Context(), store.ListRequest{
		Page: 1,
		Search: &store.SearchRequest{
			Attribute: field,
			Operator:  query.OpRegex,
			Term:      term,
		},
	})
	if err != nil {
		s.redirectFlash(w, r, databaseErrText, "/", http.StatusSeeOther)
		return
	}
	if len(listing.Rows) == 0 {
		s.redirectFlash(w, r,
			fmt.Sprintf("No items found for search: %s, %s", field, term),
			"/", http.StatusSeeOther)
		return
	}

	s.renderListing(w, r, s.page(w, r, title, table), table, keyCol, listing)
}
