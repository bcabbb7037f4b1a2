package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixFixedGear    = "fgear"
	PrefixRotatingGear = "gear"
	PrefixSession      = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewFixedGearID() string    { return New(PrefixFixedGear) }
func NewRotatingGearID() string { return New(PrefixRotatingGear) }
func NewSessionID() string      { return New(PrefixSession) }

// Prefix returns the type prefix of id, or an error if id is not a typeid.
func Prefix(id string) (string, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	return parsed.Prefix(), nil
}

func Validate(id, expectedPrefix string) error {
	prefix, err := Prefix(id)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, prefix, id)
	}
	return nil
}
