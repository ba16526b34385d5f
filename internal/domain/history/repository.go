package history

// ListFilter narrows List results.
type ListFilter struct {
	// Registry restricts runs to one registry directory. Empty means all.
	Registry string

	// Limit caps the number of runs returned. 0 means no limit.
	Limit int
}

// RunRepository persists check runs.
type RunRepository interface {
	// Save stores a run and its violations. Saving an id twice is an error.
	Save(run *Run) error

	// FindByID returns the run with the id, or a RunNotFoundError.
	FindByID(id string) (*Run, error)

	// Latest returns the most recent run for a registry, or a RunNotFoundError.
	Latest(registry string) (*Run, error)

	// List returns runs newest first, without their violations.
	List(filter ListFilter) ([]*Run, error)

	// Prune deletes all but the newest keep runs of a registry and returns
	// the number deleted.
	Prune(registry string, keep int) (int, error)
}
