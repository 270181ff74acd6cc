package config

import (
	"encoding/json/v2"
	"fmt"
	"os"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// LoadCatalog reads the JSON service catalog at path. An empty path or a
// missing file yields an empty catalog rather than an error: the redemption
// engine reports EMPTY_CATALOG to callers instead of the process failing to
// start.
func LoadCatalog(path string) (*domain.Catalog, error) {
	if path == "" {
		return &domain.Catalog{}, nil
	}

	data, err := os.ReadFile(path) //#nosec G304 -- catalog path comes from config
	if os.IsNotExist(err) {
		return &domain.Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog domain.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for i, svc := range catalog.Services {
		if svc.ID == "" || svc.Cost <= 0 {
			return nil, fmt.Errorf("catalog entry %d: id and positive cost are required", i)
		}
	}
	return &catalog, nil
}
