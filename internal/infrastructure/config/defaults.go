package config

import "github.com/spf13/viper"

// CORS origins have no default: nothing cross-origin is allowed until listed.
func setDefaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"app.name": "calibra-backend",
		"app.env":  "development",
		"app.port": "8080",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "calibra",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,

		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"jwt.secret":                   "",
		"jwt.refresh_secret":           "",
		"jwt.access_token_expiration":  "15m",
		"jwt.refresh_token_expiration": "168h",
		"jwt.issuer":                   "calibra-backend",
		"jwt.max_refresh_count":        10,

		"log.level":        "info",
		"log.format":       "console",
		"log.output":       "stdout",
		"log.max_size_mb":  100,
		"log.max_backups":  7,
		"log.max_age_days": 30,
		"log.compress":     false,

		"event.async_workers":      4,
		"event.idempotency_ttl":    "24h",
		"event.idempotency_prefix": "calibra:event:",

		"http.read_timeout":             "15s",
		"http.write_timeout":            "15s",
		"http.idle_timeout":             "60s",
		"http.max_header_bytes":         1 << 20,
		"http.max_body_size":            10 << 20,
		"http.rate_limit_enabled":       false,
		"http.rate_limit_requests":      100,
		"http.rate_limit_window":        "1m",
		"http.auth_rate_limit_enabled":  true,
		"http.auth_rate_limit_requests": 5,
		"http.auth_rate_limit_window":   "1m",
		"http.cors_allow_origins":       []string{},
		"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID"},
		"http.trusted_proxies":          []string{},
		"http.hsts_enabled":             false,

		"scheduler.enabled":                    false,
		"scheduler.billing_day":                1,
		"scheduler.billing_hour":               6,
		"scheduler.fiscal_retransmit_interval": "1h",
		"scheduler.timezone":                   "America/Sao_Paulo",
		"scheduler.job_timeout":                "30m",

		"queue.enabled":     false,
		"queue.concurrency": 10,
		"queue.queues":      map[string]int{"critical": 6, "default": 3, "low": 1},
		"queue.max_retry":   5,

		"storage.driver":     "local",
		"storage.local_path": "./storage",
		"storage.bucket":     "",
		"storage.region":     "us-east-1",
		"storage.endpoint":   "",
		"storage.access_key": "",
		"storage.secret_key": "",
		"storage.path_style": false,

		"fiscal.base_url": "",
		"fiscal.token":    "",
		"fiscal.timeout":  "30s",
		"fiscal.uf":       "SP",

		"printing.enabled":    false,
		"printing.chrome_url": "",
		"printing.no_sandbox": false,
		"printing.timeout":    "30s",

		"authz.enabled": true,

		"swagger.enabled":      true,
		"swagger.require_auth": false,
		"swagger.allowed_ips":  []string{},

		"telemetry.enabled":                 false,
		"telemetry.collector_endpoint":      "localhost:4317",
		"telemetry.sampling_ratio":          1.0,
		"telemetry.service_name":            "calibra-backend",
		"telemetry.insecure":                false,
		"telemetry.db_trace_enabled":        false,
		"telemetry.db_log_full_sql":         false,
		"telemetry.db_slow_query_threshold": "200ms",
		"telemetry.metrics_interval":        "1m",
		"telemetry.profiler_enabled":        false,
		"telemetry.profiler_address":        "http://localhost:4040",
	} {
		v.SetDefault(key, value)
	}
}
