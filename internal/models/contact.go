package models

// Contact is one address-book row in the host's contact store.
type Contact struct {
	ID       ChatID `db:"id" json:"id"`
	PushName string `db:"push_name" json:"push_name,omitempty"`
	FullName string `db:"full_name" json:"full_name,omitempty"`
	Saved    bool   `db:"saved" json:"saved"`
}
