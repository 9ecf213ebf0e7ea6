package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"airline-admin/internal/naming"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Database.validate(result)
	c.Server.validate(result)
	c.Session.validate(result)
	c.Pagination.validate(result)
	c.Observability.validate(result)
	validateNamingConfig(result, c.Naming)

	// A session cookie readable over plain HTTP defeats the TLS listener.
	tlsEnabled := c.Server.TLSMode != "" && c.Server.TLSMode != "off"
	if tlsEnabled && !c.Session.Secure {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "session.secure",
			Message: "session cookie is not marked Secure while TLS is enabled",
			Hint:    "set session.secure=true so browsers only send the cookie over HTTPS",
		})
	}

	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if strings.TrimSpace(d.IniFile) != "" && (strings.TrimSpace(d.ConnectionString) != "" || strings.TrimSpace(d.ConnectionStringFile) != "") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.ini_file",
			Message: "ini_file is mutually exclusive with dsn/dsn_file",
			Hint:    "set either ini_file or dsn/dsn_file, not both",
		})
	}

	if strings.TrimSpace(d.IniFile) != "" {
		settings, err := parseIniFile(d.IniFile)
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.ini_file",
				Message: fmt.Sprintf("failed to parse ini file: %v", err),
				Hint:    "provide a settings file with a [database] section",
			})
		} else {
			if d.Host == "" && settings.Host != "" {
				d.Host = settings.Host
			}
			if d.Port == 0 && settings.HasPort {
				d.Port = settings.Port
			}
			if d.User == "" && settings.User != "" {
				d.User = settings.User
			}
			if d.Password == "" && settings.Password != "" {
				d.Password = settings.Password
			}
			if d.SSLMode == "" && settings.SSLMode != "" {
				d.SSLMode = settings.SSLMode
			}
			if settings.HasDBName {
				if strings.TrimSpace(d.Database) == "" {
					d.Database = settings.Database
				} else if d.Database != settings.Database {
					result.Errors = append(result.Errors, ValidationError{
						Field:   "database.database",
						Message: fmt.Sprintf("database mismatch: database.database=%q but database.ini_file targets %q", d.Database, settings.Database),
						Hint:    "either remove database.database or set it to match the ini file database",
					})
				}
			}
		}
	}

	// Port range validation (only if not using connection string)
	if d.ConnectionString == "" && (d.Port < 1 || d.Port > 65535) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port),
		})
	}

	if strings.TrimSpace(d.Schema) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.schema",
			Message: "schema cannot be empty",
			Hint:    "set database.schema to the schema holding the airline tables",
		})
	}

	// SSL mode validation
	if _, err := normalizeSSLMode(d.SSLMode); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.sslmode",
			Message: fmt.Sprintf("invalid sslmode %q", d.SSLMode),
			Hint:    "valid values are: disable, allow, prefer, require, verify-ca, verify-full",
		})
	}
	if d.SSLMode == "disable" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.sslmode",
			Message: "sslmode disable sends credentials in cleartext",
			Hint:    "use require or higher in production",
		})
	}
	if (d.SSLMode == "verify-ca" || d.SSLMode == "verify-full") && strings.TrimSpace(d.SSLRootCert) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.ssl_root_cert",
			Message: fmt.Sprintf("root certificate is required for sslmode %s", d.SSLMode),
			Hint:    "set database.ssl_root_cert to the CA certificate path",
		})
	}

	// Connection pool validation
	if d.Pool.MaxOpen < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.pool.max_open",
			Message: "max_open cannot be negative",
		})
	}
	if d.Pool.MaxIdle < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.pool.max_idle",
			Message: "max_idle cannot be negative",
		})
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.pool.max_idle",
			Message: "max_idle is greater than max_open",
			Hint:    "idle connections will be limited to max_open",
		})
	}

	// Connection retry validation
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval > d.ConnectionTimeout {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval is greater than connection_timeout",
			Hint:    "only one connection attempt will be made",
		})
	}
	if d.ConnectionRetryInterval < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval cannot be negative",
		})
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval must be greater than 0 when connection_timeout is set",
			Hint:    "set a retry interval such as 2s, or set connection_timeout to 0 to disable retries",
		})
	}
	if d.ConnectionTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_timeout",
			Message: "connection_timeout cannot be negative",
		})
	}

	effectiveDatabase, _, err := resolveEffectiveDatabaseName(d.Database, d.ConnectionString, d.IniFile)
	if err != nil {
		switch {
		case strings.HasPrefix(err.Error(), "database.dsn"):
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.dsn",
				Message: err.Error(),
				Hint:    "set a valid PostgreSQL DSN in database.dsn/database.dsn_file",
			})
		case strings.HasPrefix(err.Error(), "database.ini_file"):
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.ini_file",
				Message: err.Error(),
				Hint:    "set a valid ini file with a [database] database entry, or set database.database",
			})
		case strings.Contains(err.Error(), "mismatch"):
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.database",
				Message: err.Error(),
				Hint:    "either remove database.database or set it to match the DSN/ini file database",
			})
		default:
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.database",
				Message: err.Error(),
				Hint:    "set database.database or include a /database in database.dsn/database.dsn_file or database.ini_file",
			})
		}
		return
	}

	// Keep runtime behavior deterministic for callers that consume Database.Database.
	d.Database = effectiveDatabase
}

func (s *ServerConfig) validate(result *ValidationResult) {
	// Port range validation
	if s.Port < 1 || s.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port),
		})
	}

	// API validation
	if !s.API.Enabled && (strings.TrimSpace(s.API.AuthToken) != "" || strings.TrimSpace(s.API.AuthTokenFile) != "") {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.api.enabled",
			Message: "an API auth token is set but the JSON API is disabled",
			Hint:    "enable server.api.enabled to serve /api/v1",
		})
	}

	// Rate limit validation
	if s.RateLimitEnabled {
		if s.RateLimitRPS <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_rps",
				Message: "rate_limit_rps must be greater than 0 when rate limiting is enabled",
			})
		}
		if s.RateLimitBurst <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_burst",
				Message: "rate_limit_burst must be greater than 0 when rate limiting is enabled",
			})
		}
	}

	if !s.RateLimitEnabled && (s.RateLimitRPS > 0 || s.RateLimitBurst > 0) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.rate_limit_enabled",
			Message: "rate limit values are set but rate limiting is disabled",
			Hint:    "enable server.rate_limit_enabled to apply rate limits",
		})
	}

	// CORS validation
	if s.CORSEnabled {
		if len(s.CORSAllowedOrigins) == 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.cors_allowed_origins",
				Message: "CORS enabled but no allowed origins configured",
				Hint:    "set cors_allowed_origins or disable CORS",
			})
		}

		hasWildcard := false
		for _, origin := range s.CORSAllowedOrigins {
			if strings.TrimSpace(origin) == "*" {
				hasWildcard = true
				break
			}
		}

		if hasWildcard && s.CORSAllowCredentials {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.cors_allowed_origins",
				Message: "wildcard origin (*) cannot be used with credentials",
				Hint:    "use specific origins with credentials, or wildcard without credentials",
			})
		}

		if hasWildcard {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "server.cors_allowed_origins",
				Message: "CORS wildcard origin enabled",
				Hint:    "use specific origins in production for better security",
			})
		}
	}

	tlsEnabled := s.TLSMode != "" && s.TLSMode != "off"
	if s.CORSEnabled && tlsEnabled && len(s.CORSAllowedOrigins) > 0 {
		onlyHTTP := true
		for _, origin := range s.CORSAllowedOrigins {
			origin = strings.TrimSpace(origin)
			if origin == "" || origin == "*" {
				onlyHTTP = false
				break
			}
			if strings.HasPrefix(origin, "https://") {
				onlyHTTP = false
				break
			}
			if !strings.HasPrefix(origin, "http://") {
				onlyHTTP = false
				break
			}
		}
		if onlyHTTP {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "server.cors_allowed_origins",
				Message: "CORS allowed origins are http:// only while TLS is enabled",
				Hint:    "use https:// origins when serving over TLS",
			})
		}
	}

	// TLS validation
	validTLSModes := map[string]bool{"": true, "off": true, "auto": true, "file": true}
	if !validTLSModes[s.TLSMode] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.tls_mode",
			Message: fmt.Sprintf("invalid TLS mode %q", s.TLSMode),
			Hint:    "valid values are: off, auto, file",
		})
	}

	if s.TLSMode == "file" {
		if s.TLSCertFile == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.tls_cert_file",
				Message: "TLS cert file required when tls_mode is 'file'",
			})
		}
		if s.TLSKeyFile == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.tls_key_file",
				Message: "TLS key file required when tls_mode is 'file'",
			})
		}
	}
}

func (s *SessionConfig) validate(result *ValidationResult) {
	if strings.TrimSpace(s.Secret) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "session.secret",
			Message: "session secret is required",
			Hint:    "set session.secret or session.secret_file (generate with openssl rand -hex 32)",
		})
	} else if len(s.Secret) < 32 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "session.secret",
			Message: "session secret is shorter than 32 bytes",
			Hint:    "use at least 32 random bytes to sign cookies",
		})
	}

	if strings.TrimSpace(s.CookieName) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "session.cookie_name",
			Message: "cookie name cannot be empty",
		})
	}

	if s.MaxAge < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "session.max_age",
			Message: "max_age cannot be negative",
		})
	}
}

func (p *PaginationConfig) validate(result *ValidationResult) {
	if p.PageSize < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "pagination.page_size",
			Message: "page_size must be greater than 0",
		})
	}
	if p.PageSize > 500 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "pagination.page_size",
			Message: fmt.Sprintf("page_size %d renders very large listing pages", p.PageSize),
			Hint:    "keep listing pages at a few hundred rows or fewer",
		})
	}
	if p.MaxJump < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "pagination.max_jump",
			Message: "max_jump must be greater than 0",
		})
	}
}

func validateNamingConfig(result *ValidationResult, cfg naming.Config) {
	for columnName, label := range cfg.LabelOverrides {
		if strings.TrimSpace(columnName) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.label_overrides",
				Message: "column name cannot be empty",
			})
			continue
		}
		if strings.TrimSpace(label) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.label_overrides",
				Message: fmt.Sprintf("label for column %q cannot be empty", columnName),
			})
		}
	}

	for plural, singular := range cfg.SingularOverrides {
		if strings.TrimSpace(plural) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.singular_overrides",
				Message: "plural form cannot be empty",
			})
			continue
		}
		if strings.TrimSpace(singular) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.singular_overrides",
				Message: fmt.Sprintf("singular form for %q cannot be empty", plural),
			})
		}
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	// Log level validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.level",
			Message: fmt.Sprintf("invalid log level %q", o.Logging.Level),
			Hint:    "valid values are: debug, info, warn, error",
		})
	}

	// Log format validation
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.format",
			Message: fmt.Sprintf("invalid log format %q", o.Logging.Format),
			Hint:    "valid values are: json, text",
		})
	}

	// OTLP protocol validation
	o.OTLP.validate("observability.otlp", result)

	// Signal-specific OTLP validation
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
	if o.Metrics != nil {
		o.Metrics.validate("observability.metrics", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".protocol",
			Message: fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			Hint:    "valid values are: grpc, http/protobuf",
		})
	}

	if o.Protocol == "http/protobuf" {
		if !validOTLPEndpoint(o.Endpoint) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   prefix + ".endpoint",
				Message: fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
				Hint:    "use host:port or a full URL",
			})
		}
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".compression",
			Message: fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			Hint:    "valid values are: none, gzip",
		})
	}

	if o.RetryMaxAttempts < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".retry_max_attempts",
			Message: "retry_max_attempts cannot be negative",
		})
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
