package models

// User represents a registered user in the system
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Not serialized
	Name         string `json:"name"`
	Gender       string `json:"gender"`
}

// Person is the public projection of a user used in follow lists
type Person struct {
	Name string `json:"name"`
}
