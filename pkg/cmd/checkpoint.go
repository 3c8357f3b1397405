package cmd

import (
	"fmt"
	"strings"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/checkpoint/file"
	"github.com/scriptflow/scriptflow/pkg/checkpoint/redis"
)

var supportedCheckpointProviders = []string{"file", "redis"}

// NewCheckpointStore creates a checkpoint store from a database URL.
// Unrecognized schemes fall back to the file store, treating the URL as a
// directory path.
func NewCheckpointStore(databaseURL string) (checkpoint.Store, error) {
	switch parseCheckpointProvider(databaseURL) {
	case "redis":
		store, err := redis.NewStore(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis checkpoint store: %w", err)
		}

		return store, nil
	default:
		return file.NewStore(databaseURL), nil
	}
}

func parseCheckpointProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedCheckpointProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
