package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
)

// DiscoveryResult counts how the remote listing was reconciled with the store.
type DiscoveryResult struct {
	Remote    int // Projects returned by the remote listing
	Added     int // New records appended to the store
	Refreshed int // Existing records whose export status was refreshed
	Filtered  int // Projects excluded by the group filter
}

// Discover lists every remote project and reconciles it with state.
//
// New projects are appended in listing order with download status "none".
// Known projects only get a fresh export status, unless ResyncNames is set.
// The store is mutated in memory only.
func (e *ExportEngine) Discover(ctx context.Context, prog chan<- ProgressUpdate, state *models.Progress) (*DiscoveryResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: export service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(ctx, prog, listingProjectsUpdate(e.svc.Name()))

	remote, err := e.svc.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := &DiscoveryResult{Remote: len(remote)}
	e.logger.Info("listed remote projects", "count", len(remote))

	for i, item := range remote {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !e.opts.Filter.Allows(item.Namespace) {
			result.Filtered++
			continue
		}

		status, err := e.svc.ExportStatus(ctx, item.ID)
		if err != nil {
			return result, fmt.Errorf("failed to query export status of %s (ID: %d): %w", item.Name, item.ID, err)
		}

		project := state.Find(item.ID)
		added := project == nil
		if added {
			project = models.NewProject(item.ID, item.Name, item.Namespace, status)
			if err := state.Add(project); err != nil {
				return result, fmt.Errorf("failed to add project %d: %w", item.ID, err)
			}
			result.Added++
			e.logger.Debug("new project", "id", item.ID, "name", item.Name, "group", item.Namespace, "export_status", status)
		} else {
			project.ExportStatus = status
			if e.opts.ResyncNames {
				project.Name = item.Name
				project.GroupName = item.Namespace
			}
			result.Refreshed++
		}

		e.sendProgress(ctx, prog, discoveredUpdate(i+1, len(remote), project, added))
	}

	return result, nil
}
