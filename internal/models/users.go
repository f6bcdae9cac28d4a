package models

// User is the identity returned by the credential service. Raw keeps every
// field it sent so /auth/me can echo it back unchanged.
type User struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Token    string         `json:"-"`
	Raw      map[string]any `json:"-"`
}

// DisplayName is the identity recorded as a record's creator.
func (u *User) DisplayName() string {
	if u == nil {
		return "unknown"
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "unknown"
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        map[string]any `json:"user"`
}
