package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification kinds, one per mutation trigger.
const (
	NotificationTalkAssigned  = "talk_assigned"
	NotificationTalkAvailable = "talk_available"
	NotificationCommentPosted = "comment_posted"
)

// NotificationLog records every outbound notification attempt.
// Delivery is best-effort; failures land here with Error set and are
// never surfaced to the request that triggered them.
type NotificationLog struct {
	BaseModel
	Kind       string         `gorm:"size:40;not null;index" json:"kind"`
	TalkID     uint           `gorm:"not null;index" json:"talk_id"`
	Subject    string         `gorm:"size:255;not null" json:"subject"`
	Recipients datatypes.JSON `json:"recipients"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	SentAt     time.Time      `json:"sent_at"`
}
