package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid or inconsistent values.
//
// Struct-level constraints are declared via `validate` tags; this function
// adds the cross-field checks the tags cannot express (seed uniqueness,
// API secret length).
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid configuration structure: %w", err)
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := validateSeed(&cfg.Seed); err != nil {
		return err
	}

	// The API secret is only required when the API is enabled; the tag-based
	// min length would reject a disabled API with no secret.
	if cfg.API.Enabled {
		if secret := cfg.API.GetSecret(); len(secret) < 32 {
			return errors.New("api: jwt secret must be at least 32 characters (set api.jwt.secret or PARLEY_API_SECRET)")
		}
		if cfg.API.Admin.Password == "" {
			return errors.New("api: admin password is required when the API is enabled")
		}
	}

	return nil
}

// validateSeed rejects duplicate seed entries and empty names. The registries
// would tolerate duplicates (second entry loses), but a config that declares
// them is almost certainly a mistake.
func validateSeed(cfg *SeedConfig) error {
	seenUsers := make(map[string]struct{}, len(cfg.Users))
	for _, u := range cfg.Users {
		if u.Name == "" {
			return errors.New("seed: user with empty name")
		}
		if u.Password == "" {
			return fmt.Errorf("seed: user %q has no password", u.Name)
		}
		if _, dup := seenUsers[u.Name]; dup {
			return fmt.Errorf("seed: duplicate user %q", u.Name)
		}
		seenUsers[u.Name] = struct{}{}
	}

	seenChannels := make(map[string]struct{}, len(cfg.Channels))
	for _, name := range cfg.Channels {
		if name == "" {
			return errors.New("seed: channel with empty name")
		}
		if _, dup := seenChannels[name]; dup {
			return fmt.Errorf("seed: duplicate channel %q", name)
		}
		seenChannels[name] = struct{}{}
	}

	return nil
}

// describeFieldError renders one validator error as a readable message.
func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: value is required", field)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, fe.Tag())
	}
}
