package peach

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Environment selects which Peach endpoint the adapter talks to.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// Static environment -> base URL table. A legacy APIURL override always
// wins over this table.
var environmentURLs = map[Environment]string{
	EnvironmentSandbox:    "https://eu-test.oppwa.com",
	EnvironmentProduction: "https://eu-prod.oppwa.com",
}

// Config carries the Peach credentials and endpoint selection.
//
// Older deployments configured an explicit APIURL plus a Sandbox flag
// instead of Environment. Both shapes are accepted: when Environment is
// absent and both legacy fields are present, Environment is derived from
// the flag. A non-empty APIURL always decides the endpoint, even when
// Environment is also set, to keep old configs behaving as they did.
type Config struct {
	EntityID string `json:"entityId" mapstructure:"entityId"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	Environment Environment `json:"environment,omitempty" mapstructure:"environment"`

	// Legacy shape.
	APIURL  string `json:"apiUrl,omitempty" mapstructure:"apiUrl"`
	Sandbox *bool  `json:"sandbox,omitempty" mapstructure:"sandbox"`

	Timeout    time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
	MaxRetries int           `json:"maxRetries,omitempty" mapstructure:"maxRetries"`

	// DisableBreaker is passed through to the transport.
	DisableBreaker bool `json:"disableBreaker,omitempty" mapstructure:"disableBreaker"`
}

// normalize folds the legacy shape into the modern one and reports which
// base URL the adapter should use. It does not validate; callers run
// validate on the result.
func (c Config) normalize(log *zap.Logger) Config {
	out := c
	if out.Environment == "" && out.APIURL != "" && out.Sandbox != nil {
		if *out.Sandbox {
			out.Environment = EnvironmentSandbox
		} else {
			out.Environment = EnvironmentProduction
		}
		log.Warn("legacy gateway config in use, derive environment from sandbox flag",
			zap.String("gateway", Name),
			zap.String("environment", string(out.Environment)),
		)
	}
	return out
}

// validate checks the normalized config. Errors here are validation
// failures, surfaced unchanged so callers can tell pre-flight problems
// from in-flight ones.
func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.EntityID) == "" {
		missing = append(missing, "entityId")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	switch c.Environment {
	case EnvironmentSandbox, EnvironmentProduction:
	case "":
		return fmt.Errorf("environment is required when no apiUrl/sandbox pair is given")
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	return nil
}

// baseURL resolves the endpoint: explicit legacy override first, then the
// environment table.
func (c Config) baseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return environmentURLs[c.Environment]
}
