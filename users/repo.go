package users

// Repo stores user records for the simulated signup flow.
// Passwords are only kept as bcrypt hashes.
type Repo interface {
	Register(user *User, password string) error
	GetByEmail(email string) (*User, error)
	List() ([]*User, error)
}
