package models

// ApplyState represents the review state of a friend link application.
// Once a record leaves Pending it never returns.
type ApplyState int

const (
	ApplyPending ApplyState = iota
	ApplyApproved
	ApplyRejected
)

// Label returns the human-readable label shown in lists and emails.
func (s ApplyState) Label() string {
	switch s {
	case ApplyPending:
		return "待审核"
	case ApplyApproved:
		return "已通过"
	case ApplyRejected:
		return "已拒绝"
	default:
		return "未知"
	}
}

// FriendApplyModel stores a friend link application.
// OriginalLink is set only for update applications and selects the
// patch flow on approval; empty means a brand-new friend (append flow).
type FriendApplyModel struct {
	Base
	Name         string     `json:"name"          gorm:"not null"`
	Link         string     `json:"link"          gorm:"not null;index"`
	AvatarLink   string     `json:"avatar_link"   gorm:"not null"`
	Descr        string     `json:"descr"         gorm:"not null"`
	Email        string     `json:"email"         gorm:"not null"`
	State        ApplyState `json:"state"         gorm:"default:0;index"`
	OriginalLink string     `json:"original_link,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
}

func (FriendApplyModel) TableName() string { return "friend_applies" }
