// Command seed loads a demo dataset into an airline-admin database so a
// fresh install has something to browse: a few staff accounts, a flight
// roster, passengers and a generated spread of tickets. Rows insert with
// ON CONFLICT DO NOTHING, so re-running is safe.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"airline-admin/internal/migrations"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("AIRADM_DATABASE_DSN"), "PostgreSQL connection URL (defaults to AIRADM_DATABASE_DSN)")
	schema := flag.String("schema", "airline", "Schema to seed")
	migrate := flag.Bool("migrate", true, "Apply pending migrations before seeding")
	ticketCount := flag.Int("tickets", 24, "Number of demo tickets to generate")
	randSeed := flag.Int64("seed", 1, "Seed for the ticket generator")
	flag.Parse()

	if *dsn == "" {
		exitErr(fmt.Errorf("no connection URL: pass -dsn or set AIRADM_DATABASE_DSN"))
	}

	target, err := withSearchPath(*dsn, *schema)
	if err != nil {
		exitErr(err)
	}

	db, err := sql.Open("pgx", target)
	if err != nil {
		exitErr(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		exitErr(fmt.Errorf("failed to connect: %w", err))
	}

	if *migrate {
		if err := migrations.Up(ctx, db, *schema); err != nil {
			exitErr(err)
		}
	}

	counts, err := seedDemoData(ctx, db, generateTickets(*ticketCount, *randSeed))
	if err != nil {
		exitErr(err)
	}

	fmt.Printf("seeded %d users, %d flights, %d passengers, %d tickets\n",
		counts.users, counts.flights, counts.passengers, counts.tickets)
}

// withSearchPath pins the schema on the connection URL so every statement,
// including the migration runner's, lands in the right schema.
func withSearchPath(dsn, schema string) (string, error) {
	if schema == "" {
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid connection URL: %w", err)
	}

	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type demoUser struct {
	UserID    string
	FirstName string
	LastName  string
	RoleID    int64
	Password  string
}

type demoFlight struct {
	ID        int64
	Number    string
	Departure string
	Arrival   string
	Departs   time.Time
	Arrives   time.Time
}

type demoPassenger struct {
	ID        int64
	FirstName string
	LastName  string
	Passport  string
}

type demoTicket struct {
	ID          int64
	FlightID    int64
	PassengerID int64
	Number      string
	BookingDate string
	Seat        string
	Class       string
	Price       float64
}

var demoUsers = []demoUser{
	{"scollins", "Sarah", "Collins", 2, "changeme"},
	{"dwright", "Daniel", "Wright", 2, "changeme"},
	{"kpatel", "Kiran", "Patel", 1, "changeme"},
}

var demoPassengers = []demoPassenger{
	{1, "Emma", "Wilson", "P2000001"},
	{2, "Liam", "Chen", "P2000002"},
	{3, "Olivia", "Garcia", "P2000003"},
	{4, "Noah", "Kim", "P2000004"},
	{5, "Ava", "Martinez", "P2000005"},
	{6, "Ethan", "Novak", "P2000006"},
	{7, "Mia", "Okafor", "P2000007"},
	{8, "Lucas", "Berg", "P2000008"},
}

func demoFlights(now time.Time) []demoFlight {
	base := now.Truncate(time.Hour)
	flight := func(id int64, number, from, to string, daysOut int, hour, length time.Duration) demoFlight {
		departs := base.AddDate(0, 0, daysOut).Add(hour)
		return demoFlight{id, number, from, to, departs, departs.Add(length)}
	}

	return []demoFlight{
		flight(1, "UA900", "SFO", "ORD", 1, 8*time.Hour, 4*time.Hour),
		flight(2, "DL411", "ATL", "MIA", 1, 11*time.Hour, 2*time.Hour),
		flight(3, "AF007", "CDG", "JFK", 2, 10*time.Hour, 8*time.Hour),
		flight(4, "EK202", "DXB", "LHR", 2, 14*time.Hour, 7*time.Hour),
		flight(5, "NH110", "HND", "SFO", 3, 17*time.Hour, 9*time.Hour),
		flight(6, "LH453", "FRA", "LAX", 4, 9*time.Hour, 11*time.Hour),
	}
}

// generateTickets produces n tickets spread over the demo flights and
// passengers. Identical seeds produce identical tickets, booking dates
// aside, so repeated runs insert the same rows.
func generateTickets(n int, seed int64) []demoTicket {
	rng := rand.New(rand.NewSource(seed))
	classes := []string{"Economy", "Economy", "Economy", "Economy", "Economy", "Economy", "Economy", "Business", "Business", "First"}
	flightCount := len(demoFlights(time.Now()))

	tickets := make([]demoTicket, 0, n)
	for i := 0; i < n; i++ {
		id := int64(5001 + i)
		class := classes[rng.Intn(len(classes))]

		var price float64
		switch class {
		case "First":
			price = 1800 + rng.Float64()*1500
		case "Business":
			price = 700 + rng.Float64()*1200
		default:
			price = 180 + rng.Float64()*400
		}

		tickets = append(tickets, demoTicket{
			ID:          id,
			FlightID:    int64(1 + rng.Intn(flightCount)),
			PassengerID: int64(1 + rng.Intn(len(demoPassengers))),
			Number:      fmt.Sprintf("TKT-%d", id),
			BookingDate: time.Now().AddDate(0, 0, -rng.Intn(60)).Format("2006-01-02"),
			Seat:        fmt.Sprintf("%d%c", 1+rng.Intn(40), 'A'+rune(rng.Intn(6))),
			Class:       class,
			Price:       float64(int(price*100)) / 100,
		})
	}
	return tickets
}

type seedCounts struct {
	users      int64
	flights    int64
	passengers int64
	tickets    int64
}

func seedDemoData(ctx context.Context, db *sql.DB, tickets []demoTicket) (seedCounts, error) {
	var counts seedCounts

	for _, u := range demoUsers {
		n, err := execCount(ctx, db,
			`INSERT INTO users (userid, firstname, lastname, userroleid, password)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (userid) DO NOTHING`,
			u.UserID, u.FirstName, u.LastName, u.RoleID, u.Password)
		if err != nil {
			return counts, fmt.Errorf("seeding user %s: %w", u.UserID, err)
		}
		counts.users += n
	}

	for _, f := range demoFlights(time.Now()) {
		n, err := execCount(ctx, db,
			`INSERT INTO flights (flightid, flightnumber, departureairport, arrivalairport, departuretime, arrivaltime)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (flightid) DO NOTHING`,
			f.ID, f.Number, f.Departure, f.Arrival, f.Departs, f.Arrives)
		if err != nil {
			return counts, fmt.Errorf("seeding flight %s: %w", f.Number, err)
		}
		counts.flights += n
	}

	for _, p := range demoPassengers {
		n, err := execCount(ctx, db,
			`INSERT INTO passengers (passengerid, firstname, lastname, passportnumber)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (passengerid) DO NOTHING`,
			p.ID, p.FirstName, p.LastName, p.Passport)
		if err != nil {
			return counts, fmt.Errorf("seeding passenger %s: %w", p.Passport, err)
		}
		counts.passengers += n
	}

	// The demo rows carry explicit ids, so bump the serial sequences past
	// them to keep later inserts from colliding.
	for _, stmt := range []string{
		`SELECT setval(pg_get_serial_sequence('flights', 'flightid'), (SELECT COALESCE(MAX(flightid), 1) FROM flights), true)`,
		`SELECT setval(pg_get_serial_sequence('passengers', 'passengerid'), (SELECT COALESCE(MAX(passengerid), 1) FROM passengers), true)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return counts, fmt.Errorf("advancing sequence: %w", err)
		}
	}

	for _, tk := range tickets {
		n, err := execCount(ctx, db,
			`INSERT INTO tickets (ticketid, flightid, passengerid, ticketnumber, bookingdate, seatnumber, class, price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (ticketid) DO NOTHING`,
			tk.ID, tk.FlightID, tk.PassengerID, tk.Number, tk.BookingDate, tk.Seat, tk.Class, tk.Price)
		if err != nil {
			return counts, fmt.Errorf("seeding ticket %d: %w", tk.ID, err)
		}
		counts.tickets += n
	}

	return counts, nil
}

func execCount(ctx context.Context, db *sql.DB, stmt string, args ...interface{}) (int64, error) {
	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
