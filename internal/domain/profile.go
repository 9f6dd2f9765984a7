package domain

// DefaultRole is assigned to a profile saved without one.
const DefaultRole = "Administrator"

// AdminProfile is the single administrator's account.
// Password is kept in plaintext; this is a local mock credential.
type AdminProfile struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	AvatarID string `json:"avatarId,omitempty"`
}

// DefaultProfile returns the profile used until the administrator signs up or edits it.
func DefaultProfile() AdminProfile {
	return AdminProfile{
		Username: "admin",
		FullName: "Admin User",
		Email:    "admin@bookshelf.com",
		Contact:  "+1 234 567 8900",
		Password: "admin123",
		Role:     DefaultRole,
	}
}

// Public returns a copy safe to hand to the view layer.
func (p AdminProfile) Public() AdminProfile {
	p.Password = ""
	return p
}
