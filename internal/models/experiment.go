package models

// Experiment is the organisational unit everything else hangs off:
// users, talks, categories and contacts all belong to exactly one.
type Experiment struct {
	BaseModel
	Name string `gorm:"size:80;uniqueIndex;not null" json:"name"`
}

func (e Experiment) String() string {
	return e.Name
}
