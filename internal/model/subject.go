package model

// Subject is an entry of the school's subject master list (read-only here).
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
