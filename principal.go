package auth

// Principal is the resolved identity attached to an authenticated
// request. There is exactly one kind of principal in this system, so it
// is a plain value rather than an interface callers would have to
// downcast.
type Principal struct {
	ID       int64  `json:"id"`
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewPrincipal builds a Principal from a user record
func NewPrincipal(user *User) *Principal {
	if user == nil {
		return nil
	}
	return &Principal{
		ID:       user.ID,
		Subject:  user.SubjectID(),
		Username: user.Username,
		Email:    user.Email,
	}
}
