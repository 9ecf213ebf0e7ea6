package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"airline-admin/internal/logging"
	"airline-admin/internal/store"
)

// Admin gate messages for the ticket pages.
const (
	msgOnlyAdminsUpdateTickets = "Only admins can update ticket details!"
	msgOnlyAdminsAddTickets    = "Only admins can add tickets!"
)

func (s *Server) handleTicketsList(w http.ResponseWriter, r *http.Request) {
	s.serveListing(w, r, "tickets", "ticketid", "List Contents of Tickets", "Error fetching tickets", s.stores.Tickets)
}

func (s *Server) handleTicketSingle(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "ticketid")

	// An unparseable id skips the query and renders the no-rows flash.
	var key interface{}
	if ticketID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		key = ticketID
	}
	s.serveSingle(w, r, "tickets", "ticketid", "List Single ticketid for tickets", raw, key, s.stores.Tickets)
}

func (s *Server) handleTicketsConsolidated(w http.ResponseWriter, r *http.Request) {
	s.serveResultTable(w, r, "List Contents of Tickets join Flights join Passengers", "tickets",
		"Error, there are no rows in tickets_flights_passengers_listdict",
		s.stores.Tickets.ListConsolidated)
}

func (s *Server) handleTicketStats(w http.ResponseWriter, r *http.Request) {
	s.serveResultTable(w, r, "Ticket Stats", "tickets",
		"Error, there are no rows in ticket_stats",
		s.stores.Tickets.Stats)
}

func (s *Server) handleTicketsSearchForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "search", searchPage{
		basePage: s.page(w, r, "Tickets search", "tickets"),
		Table:    "tickets",
	})
}

func (s *Server) handleTicketsSearch(w http.ResponseWriter, r *http.Request) {
	s.serveSearch(w, r, "tickets", "ticketid", "Tickets search", s.stores.Tickets)
}

func (s *Server) handleTicketEdit(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "ticketid")

	ticketID, err := strconv.ParseInt(raw, 10, 64)
	var row map[string]interface{}
	if err == nil {
		row, err = s.stores.Tickets.Get(r.Context(), ticketID)
	}
	if err != nil {
		s.redirectFlash(w, r,
			fmt.Sprintf("Error: No tickets matching id '%s'", raw),
			"/consolidated/tickets", http.StatusFound)
		return
	}

	s.render(w, r, "ticket_form", ticketFormPage{
		basePage:   s.page(w, r, "Edit ticket details", "tickets"),
		Editing:    true,
		Action:     "/tickets/update",
		Ticket:     row,
		Flights:    s.flightOptions(r, intValue(row["flightid"])),
		Passengers: s.passengerOptions(r, intValue(row["passengerid"])),
	})
}

func (s *Server) handleTicketUpdate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := r.PostForm

	ticketID, err := strconv.ParseInt(form.Get("ticketid"), 10, 64)
	if !form.Has("ticketid") || err != nil {
		s.redirectFlash(w, r, "Can not update without a ticketid", "/tickets", http.StatusSeeOther)
		return
	}

	fields := store.TicketUpdate{
		FlightID:     formInt64Ptr(form, "flightid"),
		PassengerID:  formInt64Ptr(form, "passengerid"),
		TicketNumber: formStringPtr(form, "ticketnumber"),
		BookingDate:  formStringPtr(form, "bookingdate"),
		SeatNumber:   formStringPtr(form, "seatnumber"),
		Class:        formStringPtr(form, "class"),
		Price:        formFloatPtr(form, "price"),
	}
	if fields == (store.TicketUpdate{}) {
		s.redirectFlash(w, r, "No updated values for ticket with ticketid", "/tickets", http.StatusSeeOther)
		return
	}

	target := "/tickets/" + strconv.FormatInt(ticketID, 10)
	if _, err := s.stores.Tickets.Update(r.Context(), ticketID, fields); err != nil {
		s.redirectFlash(w, r, databaseErrText, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleTicketAddForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "ticket_form", ticketFormPage{
		basePage:   s.page(w, r, "Add ticket details", "tickets"),
		Action:     "/tickets/add",
		Flights:    s.flightOptions(r, defaultFlightID),
		Passengers: s.passengerOptions(r, defaultPassengerID),
	})
}

// Fallbacks for ticket add forms that post no usable value.
const (
	defaultFlightID    = 1
	defaultPassengerID = 1
)

func (s *Server) handleTicketAdd(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := r.PostForm

	ticketID, err := strconv.ParseInt(form.Get("ticketid"), 10, 64)
	if !form.Has("ticketid") || err != nil {
		s.redirectFlash(w, r, "Can not add ticket without a ticketid", "/tickets/add", http.StatusSeeOther)
		return
	}

	ticket := store.NewTicket{
		TicketID:     ticketID,
		FlightID:     formInt64(form, "flightid", defaultFlightID),
		PassengerID:  formInt64(form, "passengerid", defaultPassengerID),
		TicketNumber: formString(form, "ticketnumber", "blank"),
		BookingDate:  formString(form, "bookingdate", time.Now().Format("2006-01-02")),
		SeatNumber:   formString(form, "seatnumber", "blank"),
		Class:        formString(form, "class", "Economy"),
		Price:        formFloat(form, "price", 0),
	}
	if err := s.stores.Tickets.Insert(r.Context(), ticket); err != nil {
		s.redirectFlash(w, r, "Error adding ticket", "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/tickets/"+strconv.FormatInt(ticketID, 10), http.StatusSeeOther)
}

func (s *Server) handleTicketDelete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "ticketid")

	ticketID, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		_, err = s.stores.Tickets.Delete(r.Context(), ticketID)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to delete ticket",
			slog.String("ticketid", raw),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, "/consolidated/tickets", http.StatusSeeOther)
}

func (s *Server) flightOptions(r *http.Request, selected int64) []flightOption {
	flights, err := s.stores.Tickets.ListFlights(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to list flights",
			slog.String("error", err.Error()),
		)
		return nil
	}

	options := make([]flightOption, 0, len(flights))
	for _, flight := range flights {
		options = append(options, flightOption{FlightOption: flight, Selected: flight.ID == selected})
	}
	return options
}

func (s *Server) passengerOptions(r *http.Request, selected int64) []passengerOption {
	passengers, err := s.stores.Tickets.ListPassengers(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to list passengers",
			slog.String("error", err.Error()),
		)
		return nil
	}

	options := make([]passengerOption, 0, len(passengers))
	for _, passenger := range passengers {
		options = append(options, passengerOption{PassengerOption: passenger, Selected: passenger.ID == selected})
	}
	return options
}
