//go:build integration
// +build integration

package integration

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketAdd(t *testing.T) {
	requireIntegrationEnv(t)

	s := newTestStack(t)
	s.loginAs(t, "admin", "admin")

	t.Run("add form lists flights and passengers", func(t *testing.T) {
		status, body := s.get(t, "/tickets/add")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Add ticket details")
		assert.Contains(t, body, `<option value="1" selected>AA101 (JFK to LAX)</option>`)
		assert.Contains(t, body, `<option value="2">BA204 (LHR to JFK)</option>`)
		assert.Contains(t, body, `<option value="1" selected>Alice Anderson</option>`)
		assert.Contains(t, body, "Dave Dawson")
	})

	t.Run("add with an unparseable id is rejected", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/add", url.Values{
			"ticketid": {"abc"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Can not add ticket without a ticketid")
		assert.Contains(t, body, "Add ticket details", "bounces back to the add form")
	})

	t.Run("minimal add fills in fallback values", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/add", url.Values{
			"ticketid": {"2001"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "List Single ticketid for tickets")
		assert.Contains(t, body, "<td>2001</td>")
		assert.Contains(t, body, "<td>blank</td>", "ticket number falls back to blank")
		assert.Contains(t, body, "<td>Economy</td>")
		assert.Contains(t, body, "<td>"+time.Now().Format("2006-01-02")+"</td>", "booking date falls back to today")
	})

	t.Run("full add lands on the new single row page", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/add", url.Values{
			"ticketid":     {"2002"},
			"flightid":     {"3"},
			"passengerid":  {"4"},
			"ticketnumber": {"TKT-2002"},
			"bookingdate":  {"2026-08-20"},
			"seatnumber":   {"9F"},
			"class":        {"First"},
			"price":        {"1234.5"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "<td>TKT-2002</td>")
		assert.Contains(t, body, "<td>First</td>")
		assert.Contains(t, body, "<td>9F</td>")
		assert.Contains(t, body, "<td>2026-08-20</td>")
	})

	t.Run("duplicate ticketid flashes on the welcome page", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/add", url.Values{
			"ticketid": {"1001"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Error adding ticket")
		assert.Contains(t, body, "Pick a table to administer")
	})
}

func TestTicketEditUpdateDelete(t *testing.T) {
	requireIntegrationEnv(t)

	s := newTestStack(t)
	s.loginAs(t, "admin", "admin")

	t.Run("edit form prefills the row", func(t *testing.T) {
		status, body := s.get(t, "/tickets/edit/1004")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Edit ticket details")
		assert.Contains(t, body, `value="1004" readonly`)
		assert.Contains(t, body, `<option value="2" selected>BA204 (LHR to JFK)</option>`)
		assert.Contains(t, body, `<option value="1" selected>Alice Anderson</option>`)
		assert.Contains(t, body, `value="2026-08-03"`)
		assert.Contains(t, body, `value="20C"`)
	})

	t.Run("edit of an unknown id bounces to the consolidated list", func(t *testing.T) {
		status, location := s.getRedirect(t, "/tickets/edit/99999")
		require.Equal(t, http.StatusFound, status)
		require.Equal(t, "/consolidated/tickets", location)

		status, body := s.get(t, "/tickets/edit/notanumber")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Error: No tickets matching id &#39;notanumber&#39;")
		assert.Contains(t, body, "List Contents of Tickets join Flights join Passengers")
	})

	t.Run("update rewrites only the posted fields", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/update", url.Values{
			"ticketid":   {"1004"},
			"seatnumber": {"22A"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "List Single ticketid for tickets")
		assert.Contains(t, body, "<td>22A</td>")
		assert.Contains(t, body, "<td>TKT-1004</td>", "unposted ticket number keeps its value")
	})

	t.Run("update without a ticketid is rejected", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/update", url.Values{
			"seatnumber": {"1Z"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Can not update without a ticketid")
		assert.Contains(t, body, "List Contents of Tickets", "bounces to the tickets listing")
	})

	t.Run("update with no changed fields is rejected", func(t *testing.T) {
		status, body := s.postForm(t, "/tickets/update", url.Values{
			"ticketid": {"1004"},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "No updated values for ticket with ticketid")
	})

	t.Run("delete removes the row and returns to the consolidated list", func(t *testing.T) {
		status, location := s.postFormRedirect(t, "/tickets/delete/1006", url.Values{})
		require.Equal(t, http.StatusSeeOther, status)
		require.Equal(t, "/consolidated/tickets", location)

		status, body := s.get(t, "/tickets/1006")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "there are no rows in tickets that match the attribute &#39;ticketid&#39; for the value 1006")
		assert.Contains(t, body, "No rows.")
	})
}
