package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketsInsert(t *testing.T) {
	stores, mock := newTestStores(t)

	insertSQL := `INSERT INTO "airline"."tickets" ("ticketid","flightid","passengerid","ticketnumber","bookingdate","seatnumber","class","price") VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
		WithArgs(int64(7), int64(3), int64(12), "QF-0007", "2026-08-01", "12A", "Economy", 450.50).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := stores.Tickets.Insert(context.Background(), NewTicket{
		TicketID:     7,
		FlightID:     3,
		PassengerID:  12,
		TicketNumber: "QF-0007",
		BookingDate:  "2026-08-01",
		SeatNumber:   "12A",
		Class:        "Economy",
		Price:        450.50,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsGetUsesExactKeyMatch(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "tickets", ticketColumns...)

	getSQL := `SELECT "ticketid", "flightid", "passengerid", "ticketnumber", "bookingdate", "seatnumber", "class", "price" FROM "airline"."tickets" WHERE "ticketid" = $1 ORDER BY "ticketid" ASC, "flightid" ASC, "passengerid" ASC, "ticketnumber" ASC, "bookingdate" ASC, "seatnumber" ASC, "class" ASC, "price" ASC LIMIT 1 OFFSET 0`
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(ticketColumns).
			AddRow(int64(7), int64(3), int64(12), "QF-0007", "2026-08-01", "12A", "Economy", 450.50))

	row, err := stores.Tickets.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Economy", row["class"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsUpdateBuildsDynamicSet(t *testing.T) {
	stores, mock := newTestStores(t)

	expectProbe(mock, "tickets", ticketColumns...)

	updateSQL := `UPDATE "airline"."tickets" SET "class" = $1, "price" = $2 WHERE "ticketid" = $3`
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).
		WithArgs("Business", 1280.00, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	class := "Business"
	price := 1280.00
	affected, err := stores.Tickets.Update(context.Background(), 7, TicketUpdate{
		Class: &class,
		Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsUpdateNoFields(t *testing.T) {
	stores, mock := newTestStores(t)

	_, err := stores.Tickets.Update(context.Background(), 7, TicketUpdate{})
	assert.ErrorIs(t, err, ErrNoFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsDelete(t *testing.T) {
	stores, mock := newTestStores(t)

	deleteSQL := `DELETE FROM "airline"."tickets" WHERE "ticketid" = $1`
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := stores.Tickets.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsListConsolidated(t *testing.T) {
	stores, mock := newTestStores(t)

	joinSQL := `SELECT * FROM "airline"."tickets" JOIN "airline"."flights" ON ("tickets"."flightid" = "flights"."flightid") JOIN "airline"."passengers" ON ("tickets"."passengerid" = "passengers"."passengerid") ORDER BY "tickets"."ticketid" ASC`
	mock.ExpectQuery(regexp.QuoteMeta(joinSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"ticketid", "flightnumber", "firstname", "lastname"}).
			AddRow(int64(7), "QF1", "Paula", "Prentice"))

	result, err := stores.Tickets.ListConsolidated(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "QF1", result.Rows[0]["flightnumber"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsStatsGroupsByClass(t *testing.T) {
	stores, mock := newTestStores(t)

	statsSQL := `SELECT "class", COUNT(*) AS count FROM "airline"."tickets" GROUP BY "class" ORDER BY "class" ASC`
	mock.ExpectQuery(regexp.QuoteMeta(statsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"class", "count"}).
			AddRow("Business", int64(4)).
			AddRow("Economy", int64(96)))

	result, err := stores.Tickets.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Business", result.Rows[0]["class"])
	assert.Equal(t, int64(96), result.Rows[1]["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsListFlights(t *testing.T) {
	stores, mock := newTestStores(t)

	flightsSQL := `SELECT "flightid", "flightnumber", "departureairport", "arrivalairport" FROM "airline"."flights" ORDER BY "flightid" ASC`
	mock.ExpectQuery(regexp.QuoteMeta(flightsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"flightid", "flightnumber", "departureairport", "arrivalairport"}).
			AddRow(int64(1), "QF1", "SYD", "LHR").
			AddRow(int64(2), "QF2", "LHR", "SYD"))

	flights, err := stores.Tickets.ListFlights(context.Background())
	require.NoError(t, err)
	require.Len(t, flights, 2)
	assert.Equal(t, FlightOption{ID: 1, Number: "QF1", DepartureAirport: "SYD", ArrivalAirport: "LHR"}, flights[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketsListPassengers(t *testing.T) {
	stores, mock := newTestStores(t)

	passengersSQL := `SELECT "passengerid", "firstname", "lastname" FROM "airline"."passengers" ORDER BY "passengerid" ASC`
	mock.ExpectQuery(regexp.QuoteMeta(passengersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"passengerid", "firstname", "lastname"}).
			AddRow(int64(12), "Paula", "Prentice"))

	passengers, err := stores.Tickets.ListPassengers(context.Background())
	require.NoError(t, err)
	require.Len(t, passengers, 1)
	assert.Equal(t, PassengerOption{ID: 12, FirstName: "Paula", LastName: "Prentice"}, passengers[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
