// Package naming provides centralized naming logic for turning SQL schema
// names into page titles, form labels and link text, including
// singularization for entity forms and per-column label overrides.
package naming

// Config holds naming customization options.
type Config struct {
	// LabelOverrides maps a column name to the label shown in table
	// headers and forms.
	// Example: {"userid": "User ID", "ticketnumber": "Ticket No."}
	LabelOverrides map[string]string `mapstructure:"label_overrides"`

	// SingularOverrides maps plural -> custom singular
	// Example: {"people": "person", "data": "datum"}
	SingularOverrides map[string]string `mapstructure:"singular_overrides"`
}

// DefaultConfig returns the labels for the stock airline schema.
func DefaultConfig() Config {
	return Config{
		LabelOverrides: map[string]string{
			"userid":       "User ID",
			"userroleid":   "Role",
			"firstname":    "First Name",
			"lastname":     "Last Name",
			"ticketid":     "Ticket ID",
			"flightid":     "Flight ID",
			"passengerid":  "Passenger ID",
			"ticketnumber": "Ticket Number",
			"bookingdate":  "Booking Date",
			"seatnumber":   "Seat",
			"rolename":     "Role Name",
		},
		SingularOverrides: make(map[string]string),
	}
}
