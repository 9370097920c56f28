package schemaconf

import (
	"fmt"
	"os"
	"strings"
)

// EnvExtraPolicy names the environment variable holding the default extra-keys policy.
const EnvExtraPolicy = "SCHEMACONF_EXTRA"

// ExtraPolicy selects what happens to input keys the schema does not declare.
type ExtraPolicy string

const (
	// ExtraWarn logs the unexpected keys and continues.
	ExtraWarn ExtraPolicy = "warn"
	// ExtraRaise fails construction with an ExtraValuesError.
	ExtraRaise ExtraPolicy = "raise"
	// ExtraIgnore drops unexpected keys silently.
	ExtraIgnore ExtraPolicy = "ignore"
)

// ParseExtraPolicy validates a policy name.
func ParseExtraPolicy(s string) (ExtraPolicy, error) {
	switch p := ExtraPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ExtraWarn, ExtraRaise, ExtraIgnore:
		return p, nil
	}
	return "", &SchemaError{Msg: fmt.Sprintf("extra policy must be one of warn, raise, ignore; got %q", s)}
}

// DefaultExtraPolicy reads EnvExtraPolicy, falling back to ExtraWarn when unset.
func DefaultExtraPolicy() (ExtraPolicy, error) {
	v, ok := os.LookupEnv(EnvExtraPolicy)
	if !ok || v == "" {
		return ExtraWarn, nil
	}
	return ParseExtraPolicy(v)
}
