package config

import (
	"fmt"
	"strings"
)

var cacheBackends = map[string]bool{"memory": true, "sqlite": true, "redis": true, "none": true}

// Validate checks the config for:
//   - Required data path and column names
//   - Distinct event-type labels and column headers for the category dates
//   - Positive KPI windows and ordered thresholds
//   - A known cache backend with its connection settings
//   - A relay channel when notices go through Redis
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Data.Path == "" {
		errs = append(errs, "data.path is required")
	}
	if len([]rune(cfg.Data.Delimiter)) != 1 {
		errs = append(errs, fmt.Sprintf("data.delimiter %q must be a single character", cfg.Data.Delimiter))
	}

	col := cfg.Columns
	required := map[string]string{
		"timestamp":        col.Timestamp,
		"event_type":       col.EventType,
		"production_date":  col.ProductionDate,
		"maintenance_date": col.MaintenanceDate,
		"incident_date":    col.IncidentDate,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Sprintf("columns.%s is required", name))
		}
	}
	dates := map[string]string{}
	for _, pair := range [][2]string{
		{"production_date", col.ProductionDate},
		{"maintenance_date", col.MaintenanceDate},
		{"incident_date", col.IncidentDate},
	} {
		if prev, ok := dates[pair[1]]; ok && pair[1] != "" {
			errs = append(errs, fmt.Sprintf("duplicate column %q (used by %s and %s)", pair[1], prev, pair[0]))
		}
		dates[pair[1]] = pair[0]
	}

	labels := map[string]string{}
	for _, pair := range [][2]string{
		{"production", cfg.EventTypes.Production},
		{"maintenance", cfg.EventTypes.Maintenance},
		{"incident", cfg.EventTypes.Incident},
		{"observation", cfg.EventTypes.Observation},
	} {
		if pair[1] == "" {
			errs = append(errs, fmt.Sprintf("event_types.%s is required", pair[0]))
			continue
		}
		if prev, ok := labels[pair[1]]; ok {
			errs = append(errs, fmt.Sprintf("duplicate event type %q (first seen at %s, again at %s)", pair[1], prev, pair[0]))
		} else {
			labels[pair[1]] = pair[0]
		}
	}

	for i, w := range cfg.KPI.Windows {
		if w <= 0 {
			errs = append(errs, fmt.Sprintf("kpi.windows[%d]: must be positive, got %d", i, w))
		}
	}
	if cfg.KPI.NegativeThreshold > cfg.KPI.PositiveThreshold {
		errs = append(errs, fmt.Sprintf("kpi: negative_threshold %.1f exceeds positive_threshold %.1f",
			cfg.KPI.NegativeThreshold, cfg.KPI.PositiveThreshold))
	}
	if cfg.KPI.AnomalyFreeWarn > cfg.KPI.AnomalyFreeGood {
		errs = append(errs, "kpi: anomaly_free_warn must not exceed anomaly_free_good")
	}

	if len(cfg.YesValues) == 0 {
		errs = append(errs, "yes_values must not be empty")
	}
	if len(cfg.DateLayouts) == 0 {
		errs = append(errs, "date_layouts must not be empty")
	}

	switch {
	case !cacheBackends[cfg.Cache.Backend]:
		errs = append(errs, fmt.Sprintf("cache.backend %q is not one of memory, sqlite, redis, none", cfg.Cache.Backend))
	case cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr == "":
		errs = append(errs, "cache.redis_addr is required for the redis backend")
	case cfg.Cache.Backend == "sqlite" && cfg.Cache.SQLitePath == "":
		errs = append(errs, "cache.sqlite_path is required for the sqlite backend")
	}
	if cfg.Cache.TTLSeconds < 0 {
		errs = append(errs, "cache.ttl_seconds must not be negative")
	}
	if cfg.Notify.RedisAddr != "" && strings.TrimSpace(cfg.Notify.Channel) == "" {
		errs = append(errs, "notify.channel is required when notify.redis_addr is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
