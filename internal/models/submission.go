package models

import "time"

// Submission is one versioned slide upload. Versions start at 1, are
// unique per talk and never reused, even after deletion.
type Submission struct {
	BaseModel
	TalkID uint  `gorm:"not null;index;uniqueIndex:idx_talk_version,priority:1" json:"talk_id"`
	Talk   *Talk `gorm:"constraint:OnDelete:CASCADE" json:"talk,omitempty"`

	Version  int       `gorm:"not null;uniqueIndex:idx_talk_version,priority:2" json:"version"`
	Filename string    `gorm:"size:200;not null" json:"filename"`
	Time     time.Time `gorm:"not null" json:"time"`
}
