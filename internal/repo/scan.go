package repo

import (
	"encoding/json"
	"fmt"
	"time"

	"misicuan-admin/internal/mission"
)

// Column lists shared by both drivers.
const (
	packageColumns    = `id, name, category, sub_category, price, features, default_quota, is_best_value, is_decoy, order_index`
	orderColumns      = `id, client_name, client_whatsapp, package_name, social_link, note, total_price, status, user_instructions, created_at`
	missionColumns    = `m.id, COALESCE(CAST(m.order_id AS TEXT), ''), COALESCE(CAST(m.package_id AS TEXT), ''), m.title, m.platform, m.type, m.action_label, m.quota, m.reward, m.link, m.category, m.is_bonus, m.status, m.created_at, (SELECT COUNT(*) FROM submissions s WHERE s.mission_id = m.id)`
	aiRequestColumns  = `id, mission_id, context, tone, quantity, platform, status, generated_count, error, created_at, updated_at`
	submissionColumns = `id, mission_id, user_id, proof_url, status, created_at`
	taskColumns       = `id, mission_id, content, status, created_at`
	notifyColumns     = `id, user_id, type, mission_id, message, created_at`
)

type scanner interface {
	Scan(dest ...any) error
}

// timeDest adapts a time field to what the driver can scan into.
type timeDest func(*time.Time) any

func pgTime(t *time.Time) any { return t }

func scanPackage(row scanner) (mission.Package, error) {
	var p mission.Package
	var features []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.SubCategory, &p.Price, &features, &p.DefaultQuota, &p.IsBestValue, &p.IsDecoy, &p.OrderIndex); err != nil {
		return p, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return p, fmt.Errorf("decode features of %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func scanOrder(row scanner, ts timeDest) (mission.Order, error) {
	var o mission.Order
	var note *string
	var instr []byte
	if err := row.Scan(&o.ID, &o.ClientName, &o.ClientWhatsapp, &o.PackageName, &o.SocialLink, &note, &o.TotalPrice, &o.Status, &instr, ts(&o.CreatedAt)); err != nil {
		return o, err
	}
	if note != nil {
		o.Note = *note
	}
	if len(instr) > 0 && string(instr) != "null" {
		var in mission.Instructions
		if err := json.Unmarshal(instr, &in); err == nil && !in.IsZero() {
			o.UserInstructions = &in
		}
	}
	return mission.NormalizeOrder(o), nil
}

func scanMission(row scanner, ts timeDest) (mission.Mission, error) {
	var m mission.Mission
	var platform, action string
	if err := row.Scan(&m.ID, &m.OrderID, &m.PackageID, &m.Title, &platform, &action, &m.ActionLabel, &m.Quota, &m.RewardPerUnit, &m.Link, &m.CategoryLabel, &m.IsBonus, &m.Status, ts(&m.CreatedAt), &m.TakenCount); err != nil {
		return m, err
	}
	m.Platform = mission.Platform(platform)
	m.ActionType = mission.ActionType(action)
	return m, nil
}

func scanAIRequest(row scanner, ts timeDest) (AIRequest, error) {
	var r AIRequest
	err := row.Scan(&r.ID, &r.MissionID, &r.Context, &r.Tone, &r.Quantity, &r.Platform, &r.Status, &r.GeneratedCount, &r.Error, ts(&r.CreatedAt), ts(&r.UpdatedAt))
	return r, err
}

func scanSubmission(row scanner, ts timeDest) (Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.MissionID, &s.UserID, &s.ProofURL, &s.Status, ts(&s.CreatedAt))
	return s, err
}

func scanTask(row scanner, ts timeDest) (MissionTask, error) {
	var t MissionTask
	err := row.Scan(&t.ID, &t.MissionID, &t.Content, &t.Status, ts(&t.CreatedAt))
	return t, err
}

func scanNotification(row scanner, ts timeDest) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.MissionID, &n.Message, ts(&n.CreatedAt))
	return n, err
}

func featuresJSON(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("marshal features: %w", err)
	}
	return string(data), nil
}

func instructionsParam(in *mission.Instructions) (any, error) {
	if in.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal instructions: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// sqliteTimeLayout sorts lexicographically in time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

func sqliteNow() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

// sqliteTime scans the TEXT timestamps written by the SQLite repository.
type sqliteTime struct {
	t *time.Time
}

func sqliteTS(t *time.Time) any { return sqliteTime{t: t} }

func (s sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
		return nil
	case time.Time:
		*s.t = v
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	}
	return fmt.Errorf("unsupported time value %T", src)
}

func (s sqliteTime) parse(v string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t
			return nil
		}
	}
	return fmt.Errorf("parse time %q", v)
}
