package models

// Session is the authentication state held by the session store.
// IsAuthenticated is true exactly when Token is non-empty.
type Session struct {
	Token           string
	User            *User
	IsAuthenticated bool
}
