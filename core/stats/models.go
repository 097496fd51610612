package stats

// RankEntry is one responsable and the number of deliveries they registered.
type RankEntry struct {
	Nombre   string `json:"nombre"`
	Cantidad int    `json:"cantidad"`
}

// DayCount is the number of deliveries registered on Fecha ("YYYY-MM-DD").
type DayCount struct {
	Fecha    string `json:"fecha"`
	Cantidad int    `json:"cantidad"`
}

// Snapshot is the aggregate the backend computes for the statistics page.
type Snapshot struct {
	Status              string      `json:"status"`
	TotalRegistros      int         `json:"total_registros"`
	EntregadosTotal     int         `json:"entregados_total"`
	PendientesTotal     int         `json:"pendientes_total"`
	EntregadosHoy       int         `json:"entregados_hoy"`
	PorcentajeEntregado float64     `json:"porcentaje_entregado"`
	Ranking             []RankEntry `json:"ranking"`
	Historial           []DayCount  `json:"historial"`
}
