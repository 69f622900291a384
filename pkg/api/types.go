package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EntryResponse is the body of GET /entries/{name}
type EntryResponse struct {
	Name  string      `json:"name"`
	Tag   string      `json:"tag"`
	Value interface{} `json:"value"`
	// Text is the value rendered by the adapter's formatter
	Text string `json:"text"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind string
	Port int
	// APIKey protects /api/v1; empty disables the check
	APIKey string
	// MaxBodyBytes caps PUT bodies; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is the PUT body limit when none is configured
const DefaultMaxBodyBytes = 32 << 20
