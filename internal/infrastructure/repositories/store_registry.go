package repositories

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	domainRepos "github.com/rios0rios0/snipbackup/internal/domain/repositories"
	ledgerRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/ledger"
)

// LedgerFactory opens a run ledger at the given location.
type LedgerFactory func(path string) (domainRepos.LedgerRepository, error)

// ArchiveFactory creates an archive publisher for the given destination.
type ArchiveFactory func(ctx context.Context, cfg entities.ArchiveConfig) (domainRepos.ArchiveRepository, error)

// StoreRegistry manages the local run ledger kinds and the archive destinations.
type StoreRegistry struct {
	ledgers  map[string]LedgerFactory
	archives map[string]ArchiveFactory
}

// NewStoreRegistry creates an empty store registry.
func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{
		ledgers:  make(map[string]LedgerFactory),
		archives: make(map[string]ArchiveFactory),
	}
}

// RegisterLedger adds a ledger factory under the given type (e.g. "sqlite").
func (r *StoreRegistry) RegisterLedger(name string, factory LedgerFactory) {
	r.ledgers[name] = factory
}

// RegisterArchive adds an archive factory under the given name (e.g. "s3").
func (r *StoreRegistry) RegisterArchive(name string, factory ArchiveFactory) {
	r.archives[name] = factory
}

// Ledger opens the ledger of the given type.
func (r *StoreRegistry) Ledger(name, path string) (domainRepos.LedgerRepository, error) {
	factory, ok := r.ledgers[name]
	if !ok {
		return nil, fmt.Errorf("unknown ledger type: %q", name)
	}
	return factory(path)
}

// LedgerOrNoop opens the ledger of the given type and falls back to a ledger
// that remembers nothing when it cannot be opened.
func (r *StoreRegistry) LedgerOrNoop(name, path string) domainRepos.LedgerRepository {
	ledger, err := r.Ledger(name, path)
	if err != nil {
		logger.Warnf("Could not open the run ledger, continuing without it: %v", err)
		return ledgerRepo.NoopLedgerRepository{}
	}
	return ledger
}

// Archive creates the archive publisher with the given name.
func (r *StoreRegistry) Archive(
	ctx context.Context,
	name string,
	cfg entities.ArchiveConfig,
) (domainRepos.ArchiveRepository, error) {
	factory, ok := r.archives[name]
	if !ok {
		return nil, fmt.Errorf("unknown archive destination: %q", name)
	}
	return factory(ctx, cfg)
}
