package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	domainRepos "github.com/rios0rios0/snipbackup/internal/domain/repositories"
	archiveRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/archive"
	bbRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/bitbucket"
	gitRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/gitcli"
	goGitRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/gogit"
	ledgerRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/ledger"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all snippet host factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(bbRepo.ProviderName, bbRepo.NewSnippetRepositoryFromSettings)
		return reg
	}); err != nil {
		return err
	}

	// Register version control registry with both backends
	if err := container.Provide(func() *VCSRegistry {
		reg := NewVCSRegistry()
		reg.Register(entities.VCSBackendGit, gitRepo.NewGitCLIRepository)
		reg.Register(entities.VCSBackendGoGit, goGitRepo.NewGoGitRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register ledger kinds and archive destinations
	if err := container.Provide(func() *StoreRegistry {
		reg := NewStoreRegistry()
		reg.RegisterLedger(entities.LedgerSQLite, func(path string) (domainRepos.LedgerRepository, error) {
			return ledgerRepo.NewSQLiteLedgerRepository(path)
		})
		reg.RegisterLedger(entities.LedgerMemory, func(string) (domainRepos.LedgerRepository, error) {
			return ledgerRepo.NewSQLiteLedgerRepository(ledgerRepo.MemoryPath)
		})
		reg.RegisterLedger(entities.LedgerNone, func(string) (domainRepos.LedgerRepository, error) {
			return ledgerRepo.NoopLedgerRepository{}, nil
		})
		reg.RegisterArchive(archiveRepo.DestinationS3, archiveRepo.NewS3ArchiveRepositoryFromSettings)
		return reg
	}); err != nil {
		return err
	}

	return nil
}
