// Package settlement pays workers for approved submissions and retires
// missions.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"misicuan-admin/internal/metrics"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
)

// ErrSubmissionNotPending is returned when a submission was already settled.
var ErrSubmissionNotPending = errors.New("submission is not pending")

// Notification types.
const (
	NotificationApproved = "approved"
	NotificationRejected = "rejected"
)

// Store is the persistence settlement needs. repo.Repository satisfies it.
type Store interface {
	ApproveSubmission(ctx context.Context, id string) (*repo.Approval, error)
	RejectSubmission(ctx context.Context, id string) (*repo.Rejection, error)
	InsertNotification(ctx context.Context, n repo.Notification) error
	ListMissions(ctx context.Context, filter repo.MissionFilter) ([]mission.Mission, error)
	DeleteMission(ctx context.Context, id string) error
	ArchiveMission(ctx context.Context, id string) error
}

// Retirement says what RetireMission did.
type Retirement string

const (
	RetiredDeleted  Retirement = "deleted"
	RetiredArchived Retirement = "archived"
)

// Service settles submissions.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds a Service.
func New(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger.With("component", "settlement"),
		metrics: m,
	}
}

// Approve credits the worker and consumes one slot of the mission. The
// congratulation notification is best-effort.
func (s *Service) Approve(ctx context.Context, submissionID string) (*repo.Approval, error) {
	approval, err := s.store.ApproveSubmission(ctx, submissionID)
	if err != nil {
		s.count("failed")
		return nil, fmt.Errorf("approve submission %s: %w", submissionID, translate(err))
	}
	s.count("approved")
	s.logger.Info("submission approved",
		"submission_id", submissionID, "user_id", approval.Submission.UserID,
		"mission_id", approval.Submission.MissionID, "reward", approval.Reward,
		"balance", approval.Balance, "remaining_quota", approval.RemainingQuota)
	if approval.MissionCompleted {
		s.logger.Info("mission completed", "mission_id", approval.Submission.MissionID)
	}

	s.notify(ctx, repo.Notification{
		UserID:    approval.Submission.UserID,
		Type:      NotificationApproved,
		MissionID: &approval.Submission.MissionID,
		Message:   ApprovedMessage(approval.MissionTitle, approval.Reward),
	})
	return approval, nil
}

// Reject refuses a submission without paying and warns the worker.
func (s *Service) Reject(ctx context.Context, submissionID string) (*repo.Rejection, error) {
	rejection, err := s.store.RejectSubmission(ctx, submissionID)
	if err != nil {
		s.count("failed")
		return nil, fmt.Errorf("reject submission %s: %w", submissionID, translate(err))
	}
	s.count("rejected")
	s.logger.Info("submission rejected", "submission_id", submissionID, "user_id", rejection.Submission.UserID)

	s.notify(ctx, repo.Notification{
		UserID:    rejection.Submission.UserID,
		Type:      NotificationRejected,
		MissionID: &rejection.Submission.MissionID,
		Message:   RejectedMessage(rejection.MissionTitle),
	})
	return rejection, nil
}

// RetireMission deletes a mission nobody has taken and archives the rest.
func (s *Service) RetireMission(ctx context.Context, missionID string) (Retirement, error) {
	err := s.store.DeleteMission(ctx, missionID)
	if err == nil {
		s.logger.Info("mission deleted", "mission_id", missionID)
		return RetiredDeleted, nil
	}
	if !errors.Is(err, repo.ErrMissionHasSubmissions) {
		return "", fmt.Errorf("delete mission %s: %w", missionID, err)
	}
	if err := s.store.ArchiveMission(ctx, missionID); err != nil {
		return "", fmt.Errorf("archive mission %s: %w", missionID, err)
	}
	s.logger.Info("mission archived", "mission_id", missionID)
	return RetiredArchived, nil
}

// ListActiveMissions returns active missions with their taken counts.
func (s *Service) ListActiveMissions(ctx context.Context, limit int) ([]mission.Mission, error) {
	ms, err := s.store.ListMissions(ctx, repo.MissionFilter{Status: mission.MissionActive, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list active missions: %w", err)
	}
	return ms, nil
}

func (s *Service) notify(ctx context.Context, n repo.Notification) {
	if err := s.store.InsertNotification(ctx, n); err != nil {
		s.logger.Warn("insert notification failed", "user_id", n.UserID, "type", n.Type, "error", err)
		s.metrics.Error("settlement")
	}
}

func (s *Service) count(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Settlements.WithLabelValues(result).Inc()
}

func translate(err error) error {
	if errors.Is(err, repo.ErrStatusConflict) {
		return ErrSubmissionNotPending
	}
	return err
}

const defaultMissionTitle = "Misi Cuan"

// ApprovedMessage is the in-app congratulation for an approved submission.
func ApprovedMessage(missionTitle string, reward int64) string {
	if missionTitle == "" {
		missionTitle = defaultMissionTitle
	}
	return "🎉 <b>CONGRATULATIONS!</b>\n\n" +
		"Hasil pekerjaan misi <b>" + missionTitle + "</b> Anda telah diverifikasi!\n\n" +
		"💰 Saldo sebesar <b>Rp " + FormatRupiah(reward) + "</b> telah berhasil masuk keranjang pencairan.\n\n" +
		"Ayo keruk terus cuanmu di menu: 📋 <b>Daftar Misi</b>! 🚀"
}

// RejectedMessage is the in-app warning for a rejected submission.
func RejectedMessage(missionTitle string) string {
	if missionTitle == "" {
		missionTitle = defaultMissionTitle
	}
	return "⚠️ <b>PERINGATAN DARI SISTEM</b>\n\n" +
		"Mohon maaf, bukti misi <b>" + missionTitle + "</b> Anda <b>DITOLAK</b> oleh Admin karena tidak sesuai dengan instruksi yang ditetapkan.\n\n" +
		"❌ Saldo Misi ini <b>tidak ditambahkan</b>.\n" +
		"Mari kerjakan dengan lebih teliti! Jangan menyerah! 💪"
}

// FormatRupiah groups thousands with dots: 12500 -> "12.500".
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
