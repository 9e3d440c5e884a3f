package repo

import (
	"context"
	"io/fs"

	"misicuan-admin/internal/mission"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Packages
	ListPackages(ctx context.Context) ([]mission.Package, error)
	UpsertPackage(ctx context.Context, pkg mission.Package) (*mission.Package, error)

	// Orders
	InsertOrder(ctx context.Context, order mission.Order) (*mission.Order, error)
	GetOrder(ctx context.Context, id string) (*mission.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]mission.Order, error)
	UpdateOrderStatus(ctx context.Context, id, from, to string) error

	// Missions
	InsertMissionsForOrder(ctx context.Context, orderID string, drafts []mission.MissionDraft) ([]mission.Mission, error)
	GetMission(ctx context.Context, id string) (*mission.Mission, error)
	ListMissions(ctx context.Context, filter MissionFilter) ([]mission.Mission, error)
	DeleteMission(ctx context.Context, id string) error
	ArchiveMission(ctx context.Context, id string) error

	// AI content
	InsertAIRequest(ctx context.Context, req AIRequest) (*AIRequest, error)
	CompleteAIRequest(ctx context.Context, id string, generated int) error
	FailAIRequest(ctx context.Context, id, reason string) error
	SkipAIRequest(ctx context.Context, id, reason string) error
	ListAIRequests(ctx context.Context, missionID string) ([]AIRequest, error)
	InsertMissionTasks(ctx context.Context, missionID string, contents []string) (int, error)
	ListMissionTasks(ctx context.Context, missionID string) ([]MissionTask, error)

	// Submissions
	InsertSubmission(ctx context.Context, sub Submission) (*Submission, error)
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	ApproveSubmission(ctx context.Context, id string) (*Approval, error)
	RejectSubmission(ctx context.Context, id string) (*Rejection, error)

	// Profiles and notifications
	GetProfile(ctx context.Context, id string) (*Profile, error)
	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
}
