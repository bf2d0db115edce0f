package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, validateStore("source", &c.Source)...)
	errs = append(errs, validateStore("target", &c.Target)...)

	if len(c.Jobs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "jobs",
			Message: "at least one job must be defined",
		})
	}
	for name, job := range c.Jobs {
		errs = append(errs, validateJob(name, &job)...)
	}

	errs = append(errs, c.validateProcessing()...)
	errs = append(errs, c.validateLogging()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateStore(prefix string, sc *StoreConfig) ValidationErrors {
	var errs ValidationErrors

	switch sc.Type {
	case StoreTypeMySQL:
		if sc.MySQL.Host == "" {
			errs = append(errs, ValidationError{Field: prefix + ".mysql.host", Message: "host is required"})
		}
		if sc.MySQL.User == "" {
			errs = append(errs, ValidationError{Field: prefix + ".mysql.user", Message: "user is required"})
		}
		if sc.MySQL.Database == "" {
			errs = append(errs, ValidationError{Field: prefix + ".mysql.database", Message: "database is required"})
		}
		if sc.MySQL.Table == "" {
			errs = append(errs, ValidationError{Field: prefix + ".mysql.table", Message: "table is required"})
		}
		if sc.MySQL.IDColumn == "" {
			errs = append(errs, ValidationError{Field: prefix + ".mysql.id_column", Message: "id_column is required"})
		}
		if sc.MySQL.Port <= 0 || sc.MySQL.Port > 65535 {
			errs = append(errs, ValidationError{
				Field:   prefix + ".mysql.port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", sc.MySQL.Port),
			})
		}
		switch sc.MySQL.TLS {
		case "", "disable", "preferred", "required":
		default:
			errs = append(errs, ValidationError{
				Field:   prefix + ".mysql.tls",
				Message: fmt.Sprintf("tls must be disable, preferred, or required, got %q", sc.MySQL.TLS),
			})
		}
	case StoreTypeREST:
		if sc.REST.URL == "" {
			errs = append(errs, ValidationError{Field: prefix + ".rest.url", Message: "url is required"})
		}
		if sc.REST.TimeoutSeconds < 0 {
			errs = append(errs, ValidationError{Field: prefix + ".rest.timeout_seconds", Message: "timeout_seconds must not be negative"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   prefix + ".type",
			Message: fmt.Sprintf("type must be %s or %s, got %q", StoreTypeMySQL, StoreTypeREST, sc.Type),
		})
	}

	return errs
}

func validateJob(name string, job *JobConfig) ValidationErrors {
	var errs ValidationErrors

	prefix := fmt.Sprintf("jobs.%s", name)
	if job.SourceUIDField == "" {
		errs = append(errs, ValidationError{Field: prefix + ".source_uid_field", Message: "source_uid_field is required"})
	}
	if job.TargetUIDField == "" {
		errs = append(errs, ValidationError{Field: prefix + ".target_uid_field", Message: "target_uid_field is required"})
	}
	for src, tgt := range job.AttributeMap {
		if src == "" || tgt == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".attribute_map",
				Message: fmt.Sprintf("mapping %q -> %q must have non-empty field names on both sides", src, tgt),
			})
		}
	}

	return errs
}

func (c *Config) validateProcessing() ValidationErrors {
	var errs ValidationErrors

	if c.Processing.PageSize <= 0 {
		errs = append(errs, ValidationError{Field: "processing.page_size", Message: "page_size must be positive"})
	}
	if c.Processing.InsertBatchSize <= 0 {
		errs = append(errs, ValidationError{Field: "processing.insert_batch_size", Message: "insert_batch_size must be positive"})
	}
	if c.Processing.DeleteBatchSize <= 0 {
		errs = append(errs, ValidationError{Field: "processing.delete_batch_size", Message: "delete_batch_size must be positive"})
	}

	return errs
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("level must be debug, info, warn, or error, got %q", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("format must be json or text, got %q", c.Logging.Format),
		})
	}

	return errs
}
