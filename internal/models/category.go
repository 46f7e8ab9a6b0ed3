package models

// Category is a named notification group within an experiment. Talks
// tagged with a category fan submission notifications out to the
// category's contacts.
type Category struct {
	BaseModel
	Name string `gorm:"size:80;not null" json:"name"`

	ExperimentID uint        `gorm:"not null;index" json:"experiment_id"`
	Experiment   *Experiment `gorm:"constraint:OnDelete:CASCADE" json:"experiment,omitempty"`

	Contacts []Contact `gorm:"many2many:categories_contacts" json:"contacts,omitempty"`
}

// Contact is a bare notification address, possibly outside the
// collaboration's registered users.
type Contact struct {
	BaseModel
	Email string `gorm:"size:200;not null" json:"email"`

	ExperimentID uint        `gorm:"not null;index" json:"experiment_id"`
	Experiment   *Experiment `gorm:"constraint:OnDelete:CASCADE" json:"experiment,omitempty"`

	Categories []Category `gorm:"many2many:categories_contacts" json:"categories,omitempty"`
}
