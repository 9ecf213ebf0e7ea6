package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"airline-admin/internal/catalog"
	"airline-admin/internal/query"
	"airline-admin/internal/sqlutil"
)

// ticketFormColumns is the insert column order for tickets rows.
var ticketFormColumns = []string{"ticketid", "flightid", "passengerid", "ticketnumber", "bookingdate", "seatnumber", "class", "price"}

// TicketsStore serves the tickets table: listings, row CRUD, the
// consolidated flight and passenger report and per-class counts.
type TicketsStore struct {
	tableStore
}

// NewTicketsStore creates the tickets store.
func NewTicketsStore(runner *query.Runner, cat *catalog.Catalog, cfg Config) *TicketsStore {
	return &TicketsStore{newTableStore(runner, cat, cfg, "tickets", "ticketid")}
}

// List serves one page of tickets.
func (s *TicketsStore) List(ctx context.Context, req ListRequest) (*Listing, error) {
	return s.list(ctx, req)
}

// Get returns the ticket row with the given id.
func (s *TicketsStore) Get(ctx context.Context, ticketID int64) (map[string]interface{}, error) {
	return s.get(ctx, ticketID)
}

// NewTicket carries the form fields for a ticket insert. BookingDate
// stays textual (YYYY-MM-DD) and is cast by the database.
type NewTicket struct {
	TicketID     int64
	FlightID     int64
	PassengerID  int64
	TicketNumber string
	BookingDate  string
	SeatNumber   string
	Class        string
	Price        float64
}

// Insert adds a ticket row.
func (s *TicketsStore) Insert(ctx context.Context, t NewTicket) error {
	return s.insert(ctx, ticketFormColumns, []interface{}{
		t.TicketID, t.FlightID, t.PassengerID, t.TicketNumber,
		t.BookingDate, t.SeatNumber, t.Class, t.Price,
	})
}

// TicketUpdate carries the optional fields of a ticket update. Nil
// fields keep their current value.
type TicketUpdate struct {
	FlightID     *int64
	PassengerID  *int64
	TicketNumber *string
	BookingDate  *string
	SeatNumber   *string
	Class        *string
	Price        *float64
}

func (u TicketUpdate) setMap() map[string]interface{} {
	set := make(map[string]interface{})
	if u.FlightID != nil {
		set["flightid"] = *u.FlightID
	}
	if u.PassengerID != nil {
		set["passengerid"] = *u.PassengerID
	}
	if u.TicketNumber != nil {
		set["ticketnumber"] = *u.TicketNumber
	}
	if u.BookingDate != nil {
		set["bookingdate"] = *u.BookingDate
	}
	if u.SeatNumber != nil {
		set["seatnumber"] = *u.SeatNumber
	}
	if u.Class != nil {
		set["class"] = *u.Class
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	return set
}

// Update applies the present fields to one ticket row and reports how
// many rows changed.
func (s *TicketsStore) Update(ctx context.Context, ticketID int64, fields TicketUpdate) (int64, error) {
	return s.update(ctx, ticketID, fields.setMap())
}

// Delete removes one ticket row.
func (s *TicketsStore) Delete(ctx context.Context, ticketID int64) (int64, error) {
	return s.deleteByKey(ctx, ticketID)
}

// ListConsolidated reports tickets joined with their flight and
// passenger details, ordered by ticket id.
func (s *TicketsStore) ListConsolidated(ctx context.Context) (*query.ResultSet, error) {
	sqlStr, args, err := sq.Select("*").
		From(sqlutil.QualifyTable(s.schema, "tickets")).
		Join(sqlutil.QualifyTable(s.schema, "flights") + ` ON ("tickets"."flightid" = "flights"."flightid")`).
		Join(sqlutil.QualifyTable(s.schema, "passengers") + ` ON ("tickets"."passengerid" = "passengers"."passengerid")`).
		OrderBy(`"tickets"."ticketid" ASC`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build consolidated tickets query: %w", err)
	}

	return s.runner.Select(ctx, s.table, query.SQLQuery{SQL: sqlStr, Args: args})
}

// Stats counts tickets per cabin class.
func (s *TicketsStore) Stats(ctx context.Context) (*query.ResultSet, error) {
	return s.stats(ctx, "class")
}

// FlightOption is one selectable flight for the ticket forms.
type FlightOption struct {
	ID               int64
	Number           string
	DepartureAirport string
	ArrivalAirport   string
}

// ListFlights returns every flight ordered by id, for the add and edit
// form selectors.
func (s *TicketsStore) ListFlights(ctx context.Context) ([]FlightOption, error) {
	sqlStr, args, err := sq.Select(`"flightid"`, `"flightnumber"`, `"departureairport"`, `"arrivalairport"`).
		From(sqlutil.QualifyTable(s.schema, "flights")).
		OrderBy(`"flightid" ASC`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build flights query: %w", err)
	}

	result, err := s.runner.Select(ctx, "flights", query.SQLQuery{SQL: sqlStr, Args: args})
	if err != nil {
		return nil, err
	}

	flights := make([]FlightOption, 0, len(result.Rows))
	for _, row := range result.Rows {
		flights = append(flights, FlightOption{
			ID:               intField(row, "flightid"),
			Number:           stringField(row, "flightnumber"),
			DepartureAirport: stringField(row, "departureairport"),
			ArrivalAirport:   stringField(row, "arrivalairport"),
		})
	}
	return flights, nil
}

// PassengerOption is one selectable passenger for the ticket forms.
type PassengerOption struct {
	ID        int64
	FirstName string
	LastName  string
}

// ListPassengers returns every passenger ordered by id, for the add and
// edit form selectors.
func (s *TicketsStore) ListPassengers(ctx context.Context) ([]PassengerOption, error) {
	sqlStr, args, err := sq.Select(`"passengerid"`, `"firstname"`, `"lastname"`).
		From(sqlutil.QualifyTable(s.schema, "passengers")).
		OrderBy(`"passengerid" ASC`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build passengers query: %w", err)
	}

	result, err := s.runner.Select(ctx, "passengers", query.SQLQuery{SQL: sqlStr, Args: args})
	if err != nil {
		return nil, err
	}

	passengers := make([]PassengerOption, 0, len(result.Rows))
	for _, row := range result.Rows {
		passengers = append(passengers, PassengerOption{
			ID:        intField(row, "passengerid"),
			FirstName: stringField(row, "firstname"),
			LastName:  stringField(row, "lastname"),
		})
	}
	return passengers, nil
}
