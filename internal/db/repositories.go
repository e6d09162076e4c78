package db

// Repositories provides access to all database repositories
type Repositories struct {
	Notices *NoticeRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Notices: NewNoticeRepository(db),
	}
}
