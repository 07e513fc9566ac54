package database

// Entry is one stored key-value pair.
type Entry struct {
	Scope     string
	Key       string
	Value     string
	UpdatedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalEntries   int
	DurableEntries int
	SessionScopes  int
}
