package model

// AccessToken is the payload carried by a staff access token. The engine does
// not mint these itself in production; the identity service does. They are
// consumed here as a capability check only.
type AccessToken struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
