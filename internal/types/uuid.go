package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_SUBSCRIPTION = "subs"
	UUID_PREFIX_USER         = "user"
	UUID_PREFIX_REQUEST      = "req"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(GenerateUUID()))
}
