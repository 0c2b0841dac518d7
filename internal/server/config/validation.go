package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg using struct tags and the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.QueueBackend == QueueBackendMemory && cfg.Workers == 0 {
		return errors.New("Workers: the memory queue needs at least one in-process worker")
	}
	if cfg.S3User != "" && cfg.S3Password == "" {
		return errors.New("S3Password: required when S3User is set")
	}
	return nil
}

// formatValidationError reports the first failing field. Values are left out
// so credentials never reach the log.
func formatValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag", e.Field(), e.Tag())
	}
	return err
}
