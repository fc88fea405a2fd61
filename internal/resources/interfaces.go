package resources

import (
	"context"

	"github.com/ganot/impala/internal/api"
)

// ProjectClient is the slice of the API client the synchronizer depends on.
type ProjectClient interface {
	ListProjects(ctx context.Context) ([]api.Project, error)
	ListDataSources(ctx context.Context, projectID int64) ([]api.DataSource, error)
	ListCanvases(ctx context.Context, projectID int64) ([]api.Canvas, error)
}
