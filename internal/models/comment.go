package models

import "time"

// Comment is a public remark on a talk page. SubmissionID pins the
// slide version that was current when the comment was made; a nil
// ParentCommentID marks a top-level comment.
type Comment struct {
	BaseModel
	Name    string    `gorm:"size:80;not null" json:"name"`
	Email   string    `gorm:"size:200;not null" json:"email"`
	Comment string    `gorm:"type:text;not null" json:"comment"`
	Time    time.Time `gorm:"not null" json:"time"`

	TalkID uint  `gorm:"not null;index" json:"talk_id"`
	Talk   *Talk `gorm:"constraint:OnDelete:CASCADE" json:"talk,omitempty"`

	SubmissionID *uint       `json:"submission_id,omitempty"`
	Submission   *Submission `json:"submission,omitempty"`

	ParentCommentID *uint `json:"parent_comment_id,omitempty"`
}
