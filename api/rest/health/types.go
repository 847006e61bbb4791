package health

type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// service description served at the root path
type InfoResponse struct {
	Service string            `json:"service"`
	Version string            `json:"version"`
	Model   string            `json:"model"`
	Routes  map[string]string `json:"routes"`
}

type StatsResponse struct {
	Capacity         int `json:"capacity"`
	InFlight         int `json:"in_flight"`
	Sessions         int `json:"sessions"`
	WebSocketClients int `json:"websocket_clients"`
}
