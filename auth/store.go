package auth

// Store is the interface required by the auth service for data storage.
type Store interface {
	Session(token string) (Session, error)
	UserRoles(userID string) ([]UserRole, error)
}
