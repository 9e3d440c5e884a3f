package repo

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a conditional status transition finds
	// the row in another state.
	ErrStatusConflict = errors.New("status conflict")
	// ErrDuplicateMissions is returned when missions already exist for an order.
	ErrDuplicateMissions = errors.New("missions already exist for order")
	// ErrMissionHasSubmissions blocks hard deletion of a mission with history.
	ErrMissionHasSubmissions = errors.New("mission has submissions")
)

// Submission statuses.
const (
	SubmissionPending  = "Pending"
	SubmissionApproved = "Approved"
	SubmissionRejected = "Rejected"
)

// AI request statuses.
const (
	AIRequestPending   = "pending"
	AIRequestCompleted = "completed"
	AIRequestFailed    = "failed"
	AIRequestDisabled  = "disabled"
)

// TaskAvailable marks a generated task nobody has claimed yet.
const TaskAvailable = "available"

// Submission is a worker's proof for a mission.
type Submission struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id"`
	UserID    string    `json:"user_id"`
	ProofURL  string    `json:"proof_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AIRequest records one content generation attempt for a mission.
type AIRequest struct {
	ID             string    `json:"id"`
	MissionID      string    `json:"mission_id"`
	Context        string    `json:"context"`
	Tone           string    `json:"tone"`
	Quantity       int       `json:"quantity"`
	Platform       string    `json:"platform"`
	Status         string    `json:"status"`
	GeneratedCount int       `json:"generated_count"`
	Error          *string   `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MissionTask is one generated piece of content a worker posts.
type MissionTask struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a worker account with its withdrawable balance.
type Profile struct {
	ID        string    `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is an in-app message for a worker.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	MissionID *string   `json:"mission_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Approval is the outcome of a settled submission.
type Approval struct {
	Submission       Submission `json:"submission"`
	MissionTitle     string     `json:"mission_title"`
	Reward           int64      `json:"reward"`
	Balance          int64      `json:"balance"`
	RemainingQuota   int        `json:"remaining_quota"`
	MissionCompleted bool       `json:"mission_completed"`
}

// Rejection is the outcome of a refused submission.
type Rejection struct {
	Submission   Submission `json:"submission"`
	MissionTitle string     `json:"mission_title"`
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status string
	Limit  int
}

// MissionFilter narrows ListMissions.
type MissionFilter struct {
	Status  string
	OrderID string
	Limit   int
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
