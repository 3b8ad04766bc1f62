// Package validators holds the input checks shared by the account flows.
package validators

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Required reports whether every value is non-empty after trimming.
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordLength reports whether p fits within MaxPasswordBytes. The limit is
// in bytes, so multi-byte characters count more than once.
func PasswordLength(p string) bool {
	return len(p) <= MaxPasswordBytes
}

// ImageFile sniffs the file at path and returns an error unless it is an image.
func ImageFile(path string) error {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect content type: %w", err)
	}
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return nil
		}
	}
	return fmt.Errorf("unsupported content type %s", mime.String())
}
