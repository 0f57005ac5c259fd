package config

// Config is the top-level dashboard configuration (YAML or TOML).
type Config struct {
	Version    string         `yaml:"version" toml:"version"`
	Data       DataConf       `yaml:"data" toml:"data"`
	Server     ServerConf     `yaml:"server" toml:"server"`
	Cache      CacheConf      `yaml:"cache" toml:"cache"`
	Notify     NotifyConf     `yaml:"notify" toml:"notify"`
	Columns    Columns        `yaml:"columns" toml:"columns"`
	EventTypes EventTypeNames `yaml:"event_types" toml:"event_types"`
	KPI        KPIConf        `yaml:"kpi" toml:"kpi"`

	// YesValues are the answers counted as an affirmative in yes/no columns.
	// Matching ignores case and accents.
	YesValues []string `yaml:"yes_values" toml:"yes_values"`
	// AllMachines is the selector value meaning "no machine filter".
	AllMachines string `yaml:"all_machines" toml:"all_machines"`
	// DateLayouts are tried in order for every date column.
	DateLayouts []string `yaml:"date_layouts" toml:"date_layouts"`
	// Units listed here always appear in unit sums, even at zero.
	Units []string `yaml:"units" toml:"units"`
	// Abbreviations shorten machine names for chart axes.
	Abbreviations map[string]string `yaml:"abbreviations" toml:"abbreviations"`
	// Stopwords extend the built-in list used for observation terms.
	Stopwords []string `yaml:"stopwords" toml:"stopwords"`
}

// DataConf points at the source table.
type DataConf struct {
	Path       string `yaml:"path" toml:"path"`
	Watch      bool   `yaml:"watch" toml:"watch"`
	Delimiter  string `yaml:"delimiter" toml:"delimiter"`
	DebounceMs int    `yaml:"debounce_ms" toml:"debounce_ms"`
}

// ServerConf holds HTTP settings.
type ServerConf struct {
	Addr           string `yaml:"addr" toml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" toml:"write_timeout_ms"`
}

// CacheConf selects the result cache backend.
type CacheConf struct {
	Backend    string `yaml:"backend" toml:"backend"` // memory | sqlite | redis | none
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	RedisAddr  string `yaml:"redis_addr" toml:"redis_addr"`
	KeyPrefix  string `yaml:"key_prefix" toml:"key_prefix"`
	TTLSeconds int    `yaml:"ttl_seconds" toml:"ttl_seconds"`
}

// NotifyConf enables the Redis relay of reload notices between replicas.
// An empty RedisAddr keeps notices local.
type NotifyConf struct {
	RedisAddr string `yaml:"redis_addr" toml:"redis_addr"`
	Channel   string `yaml:"channel" toml:"channel"`
}

// KPIConf tunes period comparisons and semaphore thresholds.
type KPIConf struct {
	Windows           []int   `yaml:"windows" toml:"windows"` // trailing window lengths in days
	PositiveThreshold float64 `yaml:"positive_threshold" toml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold" toml:"negative_threshold"`
	AnomalyFreeGood   float64 `yaml:"anomaly_free_good" toml:"anomaly_free_good"`
	AnomalyFreeWarn   float64 `yaml:"anomaly_free_warn" toml:"anomaly_free_warn"`
}

// EventTypeNames maps each category to the literal value of the event-type column.
type EventTypeNames struct {
	Production  string `yaml:"production" toml:"production"`
	Maintenance string `yaml:"maintenance" toml:"maintenance"`
	Incident    string `yaml:"incident" toml:"incident"`
	Observation string `yaml:"observation" toml:"observation"`
}

// Columns maps record fields to source column headers. Matching is exact.
type Columns struct {
	Timestamp string `yaml:"timestamp" toml:"timestamp"`
	EventType string `yaml:"event_type" toml:"event_type"`

	ProductionDate     string `yaml:"production_date" toml:"production_date"`
	ProductionMachine  string `yaml:"production_machine" toml:"production_machine"`
	ProductionOccurred string `yaml:"production_occurred" toml:"production_occurred"`
	Product            string `yaml:"product" toml:"product"`
	Quantity           string `yaml:"quantity" toml:"quantity"`
	Unit               string `yaml:"unit" toml:"unit"`
	ProductionStart    string `yaml:"production_start" toml:"production_start"`
	ProductionEnd      string `yaml:"production_end" toml:"production_end"`

	MaintenanceDate        string `yaml:"maintenance_date" toml:"maintenance_date"`
	MaintenanceMachine     string `yaml:"maintenance_machine" toml:"maintenance_machine"`
	MaintenancePerformed   string `yaml:"maintenance_performed" toml:"maintenance_performed"`
	MaintenanceType        string `yaml:"maintenance_type" toml:"maintenance_type"`
	MaintenanceDescription string `yaml:"maintenance_description" toml:"maintenance_description"`
	MaintenanceStart       string `yaml:"maintenance_start" toml:"maintenance_start"`
	MaintenanceEnd         string `yaml:"maintenance_end" toml:"maintenance_end"`
	AnomaliesDetected      string `yaml:"anomalies_detected" toml:"anomalies_detected"`
	AnomalyDescription     string `yaml:"anomaly_description" toml:"anomaly_description"`

	IncidentDate        string `yaml:"incident_date" toml:"incident_date"`
	IncidentMachine     string `yaml:"incident_machine" toml:"incident_machine"`
	IncidentDescription string `yaml:"incident_description" toml:"incident_description"`
	CorrectiveActions   string `yaml:"corrective_actions" toml:"corrective_actions"`
	IncidentStart       string `yaml:"incident_start" toml:"incident_start"`
	IncidentEnd         string `yaml:"incident_end" toml:"incident_end"`

	Notes string `yaml:"notes" toml:"notes"`
}
