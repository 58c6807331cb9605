package domain

import "regexp"

var (
	// ERP ids are 32 hex digits; a few core references use short numeric ids.
	idRe     = regexp.MustCompile(`^(?:[0-9A-Fa-f]{32}|[0-9]{1,10})$`)
	entityRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	slugRe   = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)
)

func ValidID(s string) bool { return idRe.MatchString(s) }

func ValidEntity(s string) bool { return entityRe.MatchString(s) }

// ValidSlug rejects empty slugs and any ".." segment.
func ValidSlug(s string) bool {
	if !slugRe.MatchString(s) {
		return false
	}
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '.' {
			return false
		}
	}
	return true
}
