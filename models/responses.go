package models

// Server_Event is one outbound websocket message.
type Server_Event struct {
	Type  string `json:"type"`
	Route Route  `json:"route,omitempty"`
	View  any    `json:"view,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	EventState      = "state"
	EventNavigation = "navigation"
	EventError      = "error"
)

// Error_Response is the JSON body of every non-2xx HTTP response.
type Error_Response struct {
	Error string `json:"error"`
}
