package domain

// Session is the currently signed-in identity.
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
