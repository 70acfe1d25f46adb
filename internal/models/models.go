package models

import "time"

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

type ValidationType string

const (
	ValidationPhoto ValidationType = "Photo"
	ValidationVideo ValidationType = "Video"
	ValidationText  ValidationType = "Text"
)

type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// DeadlineEveryday marks quests that never expire; any other deadline is an
// ISO date (YYYY-MM-DD).
const DeadlineEveryday = "everyday"

type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	TotalPoints   int       `json:"total_points"`
	JoinedAt      time.Time `json:"joined_at,omitempty"`
}

// DisplayName prefers the username and falls back to the first/last name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

type Quest struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ValidationType ValidationType `json:"validation_type"`
	Keyword        string         `json:"keyword"`
	Points         int            `json:"points"`
	Deadline       string         `json:"deadline"`
	PartyName      string         `json:"party_name,omitempty"`
	CategoryType   string         `json:"category_type,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	Active         bool           `json:"active"`
	CreatedBy      int64          `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
}

// Expired reports whether the quest deadline has passed on the given day.
// Everyday quests never expire.
func (q *Quest) Expired(today string) bool {
	if q.Deadline == DeadlineEveryday || q.Deadline == "" {
		return false
	}
	return q.Deadline < today
}

// ValidationLabel is the action text shown on the badge.
func (q *Quest) ValidationLabel() string {
	if q.ValidationType == "" {
		return string(ValidationPhoto)
	}
	return string(q.ValidationType)
}

type Submission struct {
	ID             string           `json:"id,omitempty"`
	UserID         int64            `json:"user_id"`
	QuestID        string           `json:"quest_id"`
	MediaType      MediaType        `json:"media_type"`
	MediaFileID    string           `json:"media_file_id"`
	Caption        string           `json:"caption,omitempty"`
	Status         SubmissionStatus `json:"status"`
	AdminMessageID int              `json:"admin_message_id,omitempty"`
	ReviewedBy     int64            `json:"reviewed_by,omitempty"`
	ReviewedAt     string           `json:"reviewed_at,omitempty"`
	SubmittedAt    string           `json:"submitted_at,omitempty"`
}

// BadgeImage is the rendered badge PNG for a quest, stored base64-encoded.
type BadgeImage struct {
	QuestID   string    `json:"quest_id"`
	ImageData string    `json:"image_data"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
