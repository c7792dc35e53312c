// Package sqlguard refuses data-mutating SQL before it reaches the stats database.
package sqlguard

import (
	"regexp"

	"github.com/Strob0t/StatForge/internal/domain"
)

// DeniedMessage is the refusal shown to callers and to the model.
const DeniedMessage = "Write operations (INSERT, UPDATE, DELETE, DROP, etc.) are not allowed. This database is read-only for safety."

var writePattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|create|alter|truncate|replace|merge)\b`)

// IsWrite reports whether query contains a mutation verb as a whole word.
func IsWrite(query string) bool {
	return writePattern.MatchString(query)
}

// Check returns a *domain.PermissionError for write queries and nil otherwise.
func Check(query string) error {
	if IsWrite(query) {
		return &domain.PermissionError{Msg: DeniedMessage}
	}
	return nil
}
