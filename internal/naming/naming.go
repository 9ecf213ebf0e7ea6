package naming

import (
	"log/slog"
	"strings"
	"unicode"
)

// Namer provides the name transformations the page templates use: table
// titles, singular entity names and column labels.
type Namer struct {
	config Config
	logger *slog.Logger
}

// New creates a Namer with the given configuration.
func New(cfg Config, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{
		config: cfg,
		logger: logger,
	}
}

// Default returns a Namer with the stock airline schema labels.
func Default() *Namer {
	return New(DefaultConfig(), nil)
}

// TableTitle converts a table name into a page heading.
// Example: "tickets" -> "Tickets", "user_roles" -> "User Roles"
func (n *Namer) TableTitle(tableName string) string {
	words := splitTokens(tableName)
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

// EntityTitle converts a table name into the singular heading used on the
// add and edit forms.
// Example: "tickets" -> "Ticket", "users" -> "User"
func (n *Namer) EntityTitle(tableName string) string {
	return capitalize(n.Singularize(strings.ToLower(tableName)))
}

// ColumnLabel converts a column name into its header and form label.
// Overrides win; anything unknown is just capitalized.
// Example: "userid" -> "User ID", "price" -> "Price"
func (n *Namer) ColumnLabel(columnName string) string {
	key := strings.ToLower(columnName)
	if label, ok := n.config.LabelOverrides[key]; ok {
		return label
	}
	return capitalize(key)
}

func capitalize(word string) string {
	if word == "" {
		return ""
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func splitTokens(name string) []string {
	var tokens []string
	for _, token := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		if token != "" {
			tokens = append(tokens, strings.ToLower(token))
		}
	}
	return tokens
}
