package phone

import (
	"fmt"
	"strings"
)

// ErrInvalid is returned when an inbound identifier cannot be canonicalized.
var ErrInvalid = fmt.Errorf("invalid phone number")

// Normalize canonicalizes an inbound WhatsApp identifier into an address key.
// Twilio delivers senders as "whatsapp:+254712345678"; the stored key is the
// bare E.164 number.
func Normalize(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	key = strings.TrimPrefix(key, "whatsapp:")
	key = strings.TrimSpace(key)

	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	if !strings.HasPrefix(key, "+") {
		return "", fmt.Errorf("%w: %q missing country prefix", ErrInvalid, key)
	}

	digits := key[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q has %d digits", ErrInvalid, key, len(digits))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q contains non-digit", ErrInvalid, key)
		}
	}

	return key, nil
}

// IsValid reports whether raw normalizes to a well-formed address key.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
