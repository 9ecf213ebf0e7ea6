package naming

import (
	"github.com/jinzhu/inflection"
)

// Singularize converts a plural word to its singular form.
// Checks custom overrides first, then falls back to the inflection library.
func (n *Namer) Singularize(word string) string {
	if override, ok := n.config.SingularOverrides[word]; ok {
		return override
	}
	return inflection.Singular(word)
}

// Pluralize converts a singular word to its plural form.
func (n *Namer) Pluralize(word string) string {
	return inflection.Plural(word)
}
