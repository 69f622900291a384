package container

import (
	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/metrics"
)

// Config holds configuration for a container
type Config struct {
	Path        string            // Backing file
	ContentFile bool              // Build the name index at open; false for plain, non-entry files
	Registry    *adapter.Registry // Adapters to use; nil starts empty
	Logger      *zap.Logger       // nil disables logging
	Metrics     *metrics.Metrics  // nil disables metrics
}

// Entry is one named, tagged value
type Entry struct {
	Name  string
	Tag   string
	Value any
}

// Stats holds statistics about a container
type Stats struct {
	Entries int   `json:"entries"`
	Size    int64 `json:"size"`
}
