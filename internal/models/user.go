package models

const (
	RoleUser      = "user"
	RoleSuperuser = "superuser"
)

type Role struct {
	BaseModel
	Name        string `gorm:"size:80;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

type User struct {
	BaseModel
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Active       bool   `gorm:"not null;default:true" json:"active"`

	ExperimentID uint        `gorm:"not null;index" json:"experiment_id"`
	Experiment   *Experiment `gorm:"constraint:OnDelete:CASCADE" json:"experiment,omitempty"`

	Roles []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// HasRole reports whether the user carries the named role.
// Roles must have been preloaded.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsSuperuser is sugar for the admin-scope check.
func (u *User) IsSuperuser() bool {
	return u.HasRole(RoleSuperuser)
}
