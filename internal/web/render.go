package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"airline-admin/internal/logging"
	"airline-admin/internal/middleware"
	"airline-admin/internal/naming"
	"airline-admin/internal/pagination"
	"airline-admin/internal/query"
	"airline-admin/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the content templates; each one parses together with the
// base layout into its own template set.
var pageNames = []string{
	"welcome", "login", "listing", "table", "search", "user_form", "ticket_form",
}

// basePage carries what the layout renders on every page: the title, the
// nav highlight, the logged-in user and the pending flash messages.
type basePage struct {
	Title   string
	Active  string
	User    *middleware.Identity
	Flashes []interface{}
}

// listingPage renders one paginated, sortable table page.
type listingPage struct {
	basePage
	Table   string
	KeyCol  string
	Listing *store.Listing
}

// tablePage renders a plain result table without paging or sort links,
// used by the consolidated and stats pages.
type tablePage struct {
	basePage
	Columns []string
	Rows    []map[string]interface{}
}

// searchPage renders the search form for one table.
type searchPage struct {
	basePage
	Table string
}

// roleOption is one role selector entry on the user forms.
type roleOption struct {
	store.Role
	Selected bool
}

// flightOption is one flight selector entry on the ticket forms.
type flightOption struct {
	store.FlightOption
	Selected bool
}

// passengerOption is one passenger selector entry on the ticket forms.
type passengerOption struct {
	store.PassengerOption
	Selected bool
}

// userFormPage renders the add and edit user forms.
type userFormPage struct {
	basePage
	Editing bool
	Action  string
	User    map[string]interface{}
	Roles   []roleOption
}

// ticketFormPage renders the add and edit ticket forms.
type ticketFormPage struct {
	basePage
	Editing    bool
	Action     string
	Ticket     map[string]interface{}
	Flights    []flightOption
	Passengers []passengerOption
}

func parseTemplates(namer *naming.Namer) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"label":   namer.ColumnLabel,
		"cell":    formatCell,
		"field":   formatField,
		"add":     func(a, b int) int { return a + b },
		"sorturl": sortURL,
		"pageurl": pageURL,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("base.html").Funcs(funcs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// formatCell turns a scanned database value into its display text.
// Date-only timestamps drop the clock so date columns read naturally.
func formatCell(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatField prefills a form input from a row map. A nil row or missing
// column renders as an empty input.
func formatField(row map[string]interface{}, name string) string {
	if row == nil {
		return ""
	}
	return formatCell(row[name])
}

// sortURL is the header link for one listing column: clicking the active
// ascending column flips it descending, anything else starts ascending.
func sortURL(table string, active query.Sort, column string) string {
	return fmt.Sprintf("/%s?page=1&sort=%s&direction=%s",
		table, url.QueryEscape(column), query.ToggleDirection(active, column))
}

// pageURL is a pagination link that keeps the current sort.
func pageURL(table string, active query.Sort, page int) string {
	return fmt.Sprintf("/%s?page=%d&sort=%s&direction=%s",
		table, page, url.QueryEscape(active.Column), active.Direction)
}

// page assembles the layout data for a render, popping any pending flash
// messages. Popped flashes save immediately so a reload does not repeat
// them.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title, active string) basePage {
	var user *middleware.Identity
	if id, ok := middleware.IdentityFrom(r.Context()); ok {
		user = &id
	}

	session := s.sessions.Session(r)
	flashes := session.Flashes()
	if len(flashes) > 0 {
		if err := session.Save(r, w); err != nil {
			logging.FromContext(r.Context()).Warn("failed to clear flash messages",
				slog.String("error", err.Error()),
			)
		}
	}

	return basePage{Title: title, Active: active, User: user, Flashes: flashes}
}

// flash queues a message for the next render of this request. The render
// pops and persists it, so no save happens here.
func (s *Server) flash(r *http.Request, message string) {
	s.sessions.Session(r).AddFlash(message)
}

// redirectFlash queues a message for the redirect target and sends the
// browser on.
func (s *Server) redirectFlash(w http.ResponseWriter, r *http.Request, message, target string, code int) {
	session := s.sessions.Session(r)
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		logging.FromContext(r.Context()).Warn("failed to save flash message",
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, target, code)
}

// render executes the named page template. The page buffers first so a
// template failure turns into a clean 500 instead of a torn response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	t, ok := s.templates[name]
	if !ok {
		logging.FromContext(r.Context()).Error("unknown page template", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		logging.FromContext(r.Context()).Error("failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// renderListing shows one page of a table. The page size window comes from
// the store; the quick jump width comes from the server configuration.
func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, base basePage, table, keyCol string, listing *store.Listing) {
	if listing == nil {
		listing = &store.Listing{}
	}
	if s.maxJump > 0 {
		listing.Page.MaxJump = s.maxJump
	}
	s.render(w, r, "listing", listingPage{
		basePage: base,
		Table:    table,
		KeyCol:   keyCol,
		Listing:  listing,
	})
}

// renderTable shows an unpaginated result set.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, base basePage, result *query.ResultSet) {
	if result == nil {
		result = &query.ResultSet{}
	}
	s.render(w, r, "table", tablePage{
		basePage: base,
		Columns:  result.Columns,
		Rows:     result.Rows,
	})
}

// listRequestFromQuery reads the listing parameters the way the pages and
// the JSON API share them: page (malformed means one), sort and direction
// (resolved against the catalog downstream, invalid values fall back).
func listRequestFromQuery(r *http.Request) store.ListRequest {
	q := r.URL.Query()
	return store.ListRequest{
		Page:    pagination.ParsePage(q.Get("page")),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("direction"),
	}
}

// clampedTarget reports the URL to bounce the client to when it asked for
// a page outside the listing's range. No redirect happens for an empty
// listing; it renders page one of nothing instead.
func clampedTarget(table string, listing *store.Listing) (string, bool) {
	if listing == nil || !listing.Page.Clamped() || listing.Page.TotalPages == 0 {
		return "", false
	}
	return pageURL(table, listing.Sort, listing.Page.Number), true
}
