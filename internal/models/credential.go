package models

// Credential is a stored credential record for the password manager panel.
// Records live only in memory; the id is unique within the store.
type Credential struct {
	ID       string `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
}
