package verification

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating a code repository
type RepositoryConfig struct {
	// Pool is required for postgres repositories
	Pool *pgxpool.Pool
}

// NewCodeRepository creates a code repository for the given persistence type
func NewCodeRepository(persistenceType string, config RepositoryConfig) (CodeRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresCodeRepository(config.Pool), nil
	case "inmem", "memory":
		return NewInMemCodeRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
