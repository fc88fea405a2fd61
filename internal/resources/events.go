package resources

// Mutation identifies a completed server-side change that requires a
// list refetch. Mutations fire only after the server confirmed them;
// failed submissions never reach the synchronizer.
type Mutation string

const (
	// MutationProjectCreated refreshes the sidebar project list.
	MutationProjectCreated Mutation = "project-created"
	// MutationUploadCompleted refreshes the open project's data sources.
	MutationUploadCompleted Mutation = "upload-completed"
	// MutationCanvasCreated refreshes the open project's canvases.
	MutationCanvasCreated Mutation = "canvas-created"
)
