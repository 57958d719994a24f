package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/metrics"
	"github.com/SscSPs/stack_budget/internal/platform/config"
)

// NewServiceContainer loads the cached document and wires every service
// around the single State that owns it.
func NewServiceContainer(ctx context.Context, cfg *config.Config, repos portsrepo.RepositoryProvider, m *metrics.Metrics) (*portssvc.ServiceContainer, error) {
	local := NewLocalPersistence(repos.Local)
	local.Metrics = m

	// Create the state container first; every service shares it
	doc := local.LoadDocumentOrDefault(ctx, domain.NewDocument())
	state := NewState(doc)
	m.SetAvailable(derivation.Available(doc))

	syncSvc := NewSyncService(state, local, repos.Remote, WithSyncMetrics(m))

	refresher, err := NewAutoRefresher(ctx, syncSvc, cfg.AutoRefreshInterval, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-refresher: %w", err)
	}

	return &portssvc.ServiceContainer{
		Budget:  NewBudgetService(state, local, syncSvc, WithBudgetMetrics(m)),
		Sync:    syncSvc,
		Refresh: refresher,
		Backup:  NewBackupService(state, local, syncSvc, WithBackupMetrics(m)),
	}, nil
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.BudgetSvcFacade = (*BudgetService)(nil)
	_ portssvc.SyncSvc         = (*SyncService)(nil)
	_ portssvc.RefreshSvc      = (*AutoRefresher)(nil)
	_ portssvc.BackupSvc       = (*BackupService)(nil)
	_ Autosaver                = (*SyncService)(nil)
	_ RefreshTarget            = (*SyncService)(nil)
)
