package session

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new session identifier: a random v4 UUID encoded as 26
// lowercase base32 characters, safe for URLs and log lines.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(idEncoding.EncodeToString(id[:])), nil
}
