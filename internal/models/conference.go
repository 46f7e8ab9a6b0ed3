package models

import "time"

type Conference struct {
	BaseModel
	Name      string    `gorm:"size:200;not null" json:"name"`
	URL       string    `gorm:"size:1000" json:"url"`
	Venue     string    `gorm:"size:200;not null" json:"venue"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
}

func (c Conference) String() string {
	return c.Name
}
