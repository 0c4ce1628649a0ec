package model

// Profile is the read-only slice of a public profile this service needs.
type Profile struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID string `gorm:"type:uuid"`
	Slug   string
}

func (Profile) TableName() string {
	return "profiles"
}
