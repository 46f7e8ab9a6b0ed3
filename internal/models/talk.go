package models

// Talk is the central entity. The speaker is a plain email address, not
// a user reference: speakers need not hold an account, they interact
// through capability links alone.
type Talk struct {
	BaseModel
	Title    string `gorm:"size:200;not null" json:"title"`
	Abstract string `gorm:"type:text" json:"abstract"`
	Duration string `gorm:"size:80;not null" json:"duration"`
	Speaker  string `gorm:"size:200;not null" json:"speaker"`

	// NSubmissions only ever grows; it allocates version numbers and is
	// never decremented when submissions are deleted.
	NSubmissions int `gorm:"not null;default:0" json:"n_submissions"`

	ExperimentID uint        `gorm:"not null;index" json:"experiment_id"`
	Experiment   *Experiment `gorm:"constraint:OnDelete:CASCADE" json:"experiment,omitempty"`

	ConferenceID uint        `gorm:"not null;index" json:"conference_id"`
	Conference   *Conference `gorm:"constraint:OnDelete:CASCADE" json:"conference,omitempty"`

	// InterestingTo lists experiments other than the owner that are
	// notified when slides become available.
	InterestingTo []Experiment `gorm:"many2many:interesting_talks" json:"interesting_to,omitempty"`
	Categories    []Category   `gorm:"many2many:talk_categories" json:"categories,omitempty"`

	// Capability tokens. ViewKey is shareable; UploadKey and ManageKey
	// are privileged and regenerated whenever the speaker changes.
	ViewKey   string `gorm:"size:200;not null" json:"-"`
	UploadKey string `gorm:"size:200;not null" json:"-"`
	ManageKey string `gorm:"size:200;not null" json:"-"`
}
