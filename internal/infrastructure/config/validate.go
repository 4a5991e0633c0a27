package config

import (
	"errors"
	"fmt"
	"slices"
)

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(c.Database.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(c.Database.MaxIdleConns <= c.Database.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	check(c.Storage.Driver == "local" || c.Storage.Driver == "s3", "storage.driver must be local or s3, got %q", c.Storage.Driver)
	check(c.Storage.Driver != "s3" || c.Storage.Bucket != "", "storage.bucket is required when storage.driver is s3")
	check(c.Scheduler.BillingDay >= 1 && c.Scheduler.BillingDay <= 28,
		"scheduler.billing_day must be between 1 and 28, got %d", c.Scheduler.BillingDay)
	check(c.Scheduler.BillingHour >= 0 && c.Scheduler.BillingHour <= 23,
		"scheduler.billing_hour must be between 0 and 23, got %d", c.Scheduler.BillingHour)
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.App.Env == "production" {
		check(c.JWT.Secret != "", "jwt.secret is required in production")
		check(c.JWT.Secret == "" || len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(c.Database.Password != "", "database.password is required in production")
		check(c.Database.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot be '*' in production")
		check(!c.Swagger.Enabled || c.Swagger.RequireAuth || len(c.Swagger.AllowedIPs) > 0,
			"swagger endpoint must be disabled, require authentication, or have IP restriction in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
	}
	return errors.Join(errs...)
}
