package config

// Default returns a config populated only with defaults. It matches the
// headers of the plant's form-responses export.
func Default() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	return cfg
}

// newConfig seeds the fields whose zero value is a legitimate setting.
// Decoding over it leaves them alone unless the file names them.
func newConfig() *Config {
	return &Config{KPI: KPIConf{
		PositiveThreshold: 5.0,
		NegativeThreshold: -5.0,
		AnomalyFreeGood:   75,
		AnomalyFreeWarn:   60,
	}}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}

	d := &cfg.Data
	def(&d.Path, "data/RESPONSES_SIPROSA.csv")
	def(&d.Delimiter, ",")
	if d.DebounceMs == 0 {
		d.DebounceMs = 500
	}

	s := &cfg.Server
	def(&s.Addr, ":8080")
	if s.ReadTimeoutMs == 0 {
		s.ReadTimeoutMs = 10_000
	}
	if s.WriteTimeoutMs == 0 {
		s.WriteTimeoutMs = 30_000
	}

	c := &cfg.Cache
	def(&c.Backend, "memory")
	def(&c.SQLitePath, "plantboard-cache.db")
	def(&c.KeyPrefix, "plantboard:")
	if c.TTLSeconds == 0 {
		c.TTLSeconds = 600
	}

	def(&cfg.Notify.Channel, "plantboard:reload")

	col := &cfg.Columns
	def(&col.Timestamp, "Timestamp")
	def(&col.EventType, "TIPO DE EVENTO A REGISTRAR")
	def(&col.ProductionDate, "FECHA DE LA PRODUCCIÓN")
	def(&col.ProductionMachine, "MAQUINA UTILIZADA")
	def(&col.ProductionOccurred, "¿HUBO PRODUCCIÓN?")
	def(&col.Product, "PRODUCTO PRODUCIDO")
	def(&col.Quantity, "CANTIDAD PRODUCIDA")
	def(&col.Unit, "UNIDAD DE MEDIDA")
	def(&col.ProductionStart, "HORA DE INICIO DE LA PRODUCCÓN")
	def(&col.ProductionEnd, "HORA DE FIN DE LA PRODUCCÓN")
	def(&col.MaintenanceDate, "FECHA DEL MANTENIMIENTO")
	def(&col.MaintenanceMachine, "MÁQUINA BAJO MANTENIMIENTO")
	def(&col.MaintenancePerformed, "¿SE REALIZÓ MANTENIMIENTO?")
	def(&col.MaintenanceType, "TIPO DE MANTENIMIENTO REALIZADO")
	def(&col.MaintenanceDescription, "DESCRIPCIÓN DEL MANTENIMIENTO REALIZADO")
	def(&col.MaintenanceStart, "HORA DE INICIO DEL MANTENIMIENTO")
	def(&col.MaintenanceEnd, "HORA DE FIN DEL MANTENIMIENTO")
	def(&col.AnomaliesDetected, "¿SE DETECTARON ANOMALÍAS O IRREGULARIDADES EN EL MANTENIMIENTO?")
	def(&col.AnomalyDescription, "DESCRIBA LAS ANOMALIAS DETECTADAS")
	def(&col.IncidentDate, "FECHA DEL INCIDENTE o PARADA")
	def(&col.IncidentMachine, "MAQUINA ASOCIADA AL INCIDENTE O PARADA")
	def(&col.IncidentDescription, "DESCRIPCIÓN DEL INCIDENTE O PARADA")
	def(&col.CorrectiveActions, "ACCIONES CORRECTIVAS")
	def(&col.IncidentStart, "HORA DE INICIO DEL INCIDENTE o PARADA")
	def(&col.IncidentEnd, "HORA DE FIN DEL INCIDENTE o PARADA")
	def(&col.Notes, "OBSERVACIONES ADICIONALES")

	et := &cfg.EventTypes
	def(&et.Production, "Producción")
	def(&et.Maintenance, "Mantenimiento")
	def(&et.Incident, "Incidentes y Paradas")
	def(&et.Observation, "Observaciones Generales")

	k := &cfg.KPI
	if len(k.Windows) == 0 {
		k.Windows = []int{7, 14, 30, 90}
	}

	if len(cfg.YesValues) == 0 {
		cfg.YesValues = []string{"Sí", "Si", "Yes"}
	}
	def(&cfg.AllMachines, "Todas")
	if len(cfg.DateLayouts) == 0 {
		cfg.DateLayouts = []string{
			"2006-01-02",
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05Z07:00",
			"2006/01/02",
			"1/2/2006",
			"1/2/2006 15:04:05",
			"1/2/2006 15:04",
		}
	}
	if len(cfg.Units) == 0 {
		cfg.Units = []string{"Comprimidos", "Blisters", "Litros"}
	}
	if cfg.Abbreviations == nil {
		cfg.Abbreviations = map[string]string{
			"Equipo de Ósmosis Inversa de Doble Paso":             "EQ. OSM. INV.",
			"Equipo Auxiliar de Refrigeración de la Emblistadora": "EQ. AUX. REFRIG.",
			"Comprimidora / Tableteadora (Nueva)":                 "COMP./TAB. (Nueva)",
			"Comprimidora / Tableteadora (Anterior)":              "COMP./TAB. (Ant.)",
			"Mezcladora en “V”":                                   "MEZCLADORA (V)",
		}
	}
}

func def(field *string, v string) {
	if *field == "" {
		*field = v
	}
}
