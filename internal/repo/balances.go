package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"misicuan-admin/internal/mission"
)

// InsertSubmission stores a worker's proof. Status defaults to Pending.
func (r *PostgresRepository) InsertSubmission(ctx context.Context, sub Submission) (*Submission, error) {
	if sub.Status == "" {
		sub.Status = SubmissionPending
	}
	q := `
INSERT INTO submissions (mission_id, user_id, proof_url, status)
VALUES ($1, $2, $3, $4)
RETURNING ` + submissionColumns + `;`
	saved, err := scanSubmission(r.pool.QueryRow(ctx, q, sub.MissionID, sub.UserID, sub.ProofURL, sub.Status), pgTime)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return &saved, nil
}

// GetSubmission retrieves a submission by id.
func (r *PostgresRepository) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 LIMIT 1;`
	sub, err := scanSubmission(r.pool.QueryRow(ctx, q, id), pgTime)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", notFound(err))
	}
	return &sub, nil
}

// ApproveSubmission settles a pending submission in one transaction: the
// submission is approved, the worker is credited the mission reward and the
// mission's remaining quota is decremented, completing it at zero.
func (r *PostgresRepository) ApproveSubmission(ctx context.Context, id string) (*Approval, error) {
	var out Approval
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		sub, err := lockPendingSubmission(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE submissions SET status = $2 WHERE id = $1`, id, SubmissionApproved); err != nil {
			return fmt.Errorf("approve submission: %w", err)
		}
		sub.Status = SubmissionApproved
		out.Submission = sub

		var quota int
		if err := tx.QueryRow(ctx, `SELECT title, reward, quota FROM missions WHERE id = $1 FOR UPDATE`, sub.MissionID).
			Scan(&out.MissionTitle, &out.Reward, &quota); err != nil {
			return fmt.Errorf("lock mission: %w", notFound(err))
		}

		const credit = `
INSERT INTO profiles (id, balance, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET
    balance = profiles.balance + EXCLUDED.balance,
    updated_at = NOW()
RETURNING balance;`
		if err := tx.QueryRow(ctx, credit, sub.UserID, out.Reward).Scan(&out.Balance); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		out.RemainingQuota = quota
		if quota > 0 {
			out.RemainingQuota = quota - 1
			status := mission.MissionActive
			if out.RemainingQuota == 0 {
				status = mission.MissionCompleted
				out.MissionCompleted = true
			}
			if _, err := tx.Exec(ctx, `UPDATE missions SET quota = $2, status = $3 WHERE id = $1`, sub.MissionID, out.RemainingQuota, status); err != nil {
				return fmt.Errorf("update mission quota: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RejectSubmission refuses a pending submission. No balance moves.
func (r *PostgresRepository) RejectSubmission(ctx context.Context, id string) (*Rejection, error) {
	var out Rejection
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		sub, err := lockPendingSubmission(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE submissions SET status = $2 WHERE id = $1`, id, SubmissionRejected); err != nil {
			return fmt.Errorf("reject submission: %w", err)
		}
		sub.Status = SubmissionRejected
		out.Submission = sub
		if err := tx.QueryRow(ctx, `SELECT title FROM missions WHERE id = $1`, sub.MissionID).Scan(&out.MissionTitle); err != nil {
			return fmt.Errorf("get mission title: %w", notFound(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func lockPendingSubmission(ctx context.Context, tx pgx.Tx, id string) (Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE;`
	sub, err := scanSubmission(tx.QueryRow(ctx, q, id), pgTime)
	if err != nil {
		return sub, fmt.Errorf("lock submission: %w", notFound(err))
	}
	if sub.Status != SubmissionPending {
		return sub, fmt.Errorf("submission is %s: %w", sub.Status, ErrStatusConflict)
	}
	return sub, nil
}

// GetProfile loads a worker profile with its balance.
func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	const q = `SELECT id, username, balance, updated_at FROM profiles WHERE id = $1 LIMIT 1;`
	var p Profile
	if err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Username, &p.Balance, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get profile: %w", notFound(err))
	}
	return &p, nil
}

// InsertNotification queues an in-app message for a worker.
func (r *PostgresRepository) InsertNotification(ctx context.Context, n Notification) error {
	const q = `
INSERT INTO user_notifications (user_id, type, mission_id, message)
VALUES ($1, $2, $3, $4);`
	if _, err := r.pool.Exec(ctx, q, n.UserID, n.Type, n.MissionID, n.Message); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the latest notifications of a worker.
func (r *PostgresRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	q := `
SELECT ` + notifyColumns + `
FROM user_notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, userID, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows, pgTime)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
