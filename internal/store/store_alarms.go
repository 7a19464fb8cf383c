package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

// Apply feeds one canonical alarm through the lifecycle state machine:
// alarm-create upserts into active_alarms, alarm-change with severity
// CLEAR moves the stored payload into alarm_history, and everything
// else leaves the database untouched. Each call is at most one
// transaction; on error the transaction rolls back and the error
// propagates so the consumer can retry the message.
func (s *Store) Apply(ctx context.Context, alarm *types.CanonicalAlarm) error {
	if alarm == nil || alarm.AlarmID == "" || alarm.EventType == "" {
		return nil
	}

	switch alarm.EventType {
	case types.EventTypeAlarmChange:
		if alarm.Severity == types.SeverityClear {
			return s.clearToHistory(ctx, alarm.AlarmID)
		}
		return nil
	case types.EventTypeAlarmCreate:
		if alarm.AlarmName == "" || alarm.NEName == "" {
			return nil
		}
		return s.upsertActive(ctx, alarm)
	default:
		// alarm-delete and unrecognized event types carry no state change.
		return nil
	}
}

func (s *Store) clearToHistory(ctx context.Context, alarmID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var payload []byte
	err = tx.QueryRow(ctx, `
		DELETE FROM active_alarms WHERE alarm_id = $1 RETURNING alarm
	`, alarmID).Scan(&payload)
	if err == pgx.ErrNoRows {
		// Clearing an alarm we never stored is not an error.
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete active alarm: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO alarm_history (alarm_id, alarm, cleared_at)
		VALUES ($1, $2, now())
	`, alarmID, payload)
	if err != nil {
		return fmt.Errorf("insert history alarm: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) upsertActive(ctx context.Context, alarm *types.CanonicalAlarm) error {
	payload, err := json.Marshal(alarm)
	if err != nil {
		return fmt.Errorf("encode alarm: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO active_alarms (alarm_id, alarm)
		VALUES ($1, $2)
		ON CONFLICT (alarm_id)
		DO UPDATE SET alarm = EXCLUDED.alarm, last_updated = now()
	`, alarm.AlarmID, payload)
	if err != nil {
		return fmt.Errorf("upsert active alarm: %w", err)
	}
	return nil
}

// =============================================================================
// CORRELATION CONTEXT
// =============================================================================

// GetActivePowerIssues returns the standing Power Issue alarms on
// physical connections, the candidate roots for power correlation.
func (s *Store) GetActivePowerIssues(ctx context.Context) ([]types.CanonicalAlarm, error) {
	rows, err := s.db.Query(ctx, `
		SELECT alarm FROM active_alarms
		WHERE alarm->>'alarm_name' = $1
		  AND alarm->>'object_type' = $2
	`, types.AlarmNamePowerIssue, types.ObjectTypePhysicalConnection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlarmPayloads(rows)
}

// GetActiveLOSRoots returns the standing loss-of-signal alarms severe
// enough to act as correlation roots.
func (s *Store) GetActiveLOSRoots(ctx context.Context) ([]types.CanonicalAlarm, error) {
	rows, err := s.db.Query(ctx, `
		SELECT alarm FROM active_alarms
		WHERE alarm->>'alarm_name' = $1
		  AND alarm->>'severity' IN ($2, $3)
	`, types.AlarmNameLossOfSignalOCH, types.SeverityCritical, types.SeverityMajor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlarmPayloads(rows)
}

func scanAlarmPayloads(rows pgx.Rows) ([]types.CanonicalAlarm, error) {
	var alarms []types.CanonicalAlarm
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var alarm types.CanonicalAlarm
		if err := json.Unmarshal(payload, &alarm); err != nil {
			return nil, fmt.Errorf("decode alarm payload: %w", err)
		}
		alarms = append(alarms, alarm)
	}
	return alarms, rows.Err()
}

// =============================================================================
// LISTINGS
// =============================================================================

// AlarmListParams narrows the active and history listings. From and To
// are ISO-8601 strings, the same shape as the stored alarm timestamps.
type AlarmListParams struct {
	Limit          int
	Severity       string
	NESearch       string
	From           string
	To             string
	CorrelatedOnly bool
	ExcludeRoot    bool
}

// ActiveAlarmRow is one line of the active alarm listing.
type ActiveAlarmRow struct {
	AlarmID       string    `json:"alarm_id"`
	AlarmName     string    `json:"alarm_name"`
	NEName        string    `json:"ne_name"`
	Severity      string    `json:"severity"`
	FirstDetected string    `json:"first_detected"`
	LastDetected  string    `json:"last_detected"`
	LastUpdated   time.Time `json:"last_updated"`
}

// HistoryAlarmRow is one line of the history listing.
type HistoryAlarmRow struct {
	AlarmID      string    `json:"alarm_id"`
	AlarmName    string    `json:"alarm_name"`
	NEName       string    `json:"ne_name"`
	Severity     string    `json:"severity"`
	LastDetected string    `json:"last_detected"`
	ClearedAt    time.Time `json:"cleared_at"`
}

// whereClause builds the shared filter conditions. timeField is the SQL
// expression the From/To bounds compare against; castTime adds a
// timestamptz cast for real timestamp columns (JSONB extracts compare
// as text, which orders correctly for ISO-8601 strings).
func (p AlarmListParams) whereClause(timeField string, castTime bool) (string, []any, int) {
	conditions := []string{}
	args := []any{}
	argNum := 1

	cast := ""
	if castTime {
		cast = "::timestamptz"
	}

	if p.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("alarm->>'severity' = $%d", argNum))
		args = append(args, p.Severity)
		argNum++
	}
	if p.NESearch != "" {
		conditions = append(conditions, fmt.Sprintf("alarm->>'ne_name' ILIKE $%d", argNum))
		args = append(args, "%"+p.NESearch+"%")
		argNum++
	}
	if p.From != "" {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d%s", timeField, argNum, cast))
		args = append(args, p.From)
		argNum++
	}
	if p.To != "" {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d%s", timeField, argNum, cast))
		args = append(args, p.To)
		argNum++
	}
	switch {
	case p.CorrelatedOnly:
		conditions = append(conditions, fmt.Sprintf("alarm->>'alarm_name' = ANY($%d)", argNum))
		args = append(args, types.ChildAlarmNames)
		argNum++
	case p.ExcludeRoot:
		conditions = append(conditions, fmt.Sprintf("NOT (alarm->>'alarm_name' = ANY($%d))", argNum))
		args = append(args, types.RootAlarmNames)
		argNum++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}
	return whereClause, args, argNum
}

func (p AlarmListParams) limit() int {
	if p.Limit <= 0 {
		return 20
	}
	if p.Limit > 100 {
		return 100
	}
	return p.Limit
}

// ListActive returns the newest standing alarms first.
func (s *Store) ListActive(ctx context.Context, params AlarmListParams) ([]ActiveAlarmRow, error) {
	whereClause, args, argNum := params.whereClause("alarm->>'last_detected'", false)

	query := fmt.Sprintf(`
		SELECT
			alarm_id,
			COALESCE(alarm->>'alarm_name', '') AS alarm_name,
			COALESCE(alarm->>'ne_name', '') AS ne_name,
			COALESCE(alarm->>'severity', '') AS severity,
			COALESCE(alarm->>'first_detected', '') AS first_detected,
			COALESCE(alarm->>'last_detected', '') AS last_detected,
			last_updated
		FROM active_alarms
		WHERE %s
		ORDER BY last_updated DESC
		LIMIT $%d
	`, whereClause, argNum)
	args = append(args, params.limit())

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveAlarmRow
	for rows.Next() {
		var r ActiveAlarmRow
		if err := rows.Scan(&r.AlarmID, &r.AlarmName, &r.NEName, &r.Severity, &r.FirstDetected, &r.LastDetected, &r.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListHistory returns the most recently cleared alarms first.
func (s *Store) ListHistory(ctx context.Context, params AlarmListParams) ([]HistoryAlarmRow, error) {
	whereClause, args, argNum := params.whereClause("cleared_at", true)

	query := fmt.Sprintf(`
		SELECT
			alarm_id,
			COALESCE(alarm->>'alarm_name', '') AS alarm_name,
			COALESCE(alarm->>'ne_name', '') AS ne_name,
			COALESCE(alarm->>'severity', '') AS severity,
			COALESCE(alarm->>'last_detected', '') AS last_detected,
			cleared_at
		FROM alarm_history
		WHERE %s
		ORDER BY cleared_at DESC
		LIMIT $%d
	`, whereClause, argNum)
	args = append(args, params.limit())

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryAlarmRow
	for rows.Next() {
		var r HistoryAlarmRow
		if err := rows.Scan(&r.AlarmID, &r.AlarmName, &r.NEName, &r.Severity, &r.LastDetected, &r.ClearedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetActive retrieves the full stored payload of one standing alarm.
// Returns nil when the id is unknown.
func (s *Store) GetActive(ctx context.Context, alarmID string) (*types.CanonicalAlarm, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `
		SELECT alarm FROM active_alarms WHERE alarm_id = $1
	`, alarmID).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var alarm types.CanonicalAlarm
	if err := json.Unmarshal(payload, &alarm); err != nil {
		return nil, fmt.Errorf("decode alarm payload: %w", err)
	}
	return &alarm, nil
}

// HistoryEntry is a cleared alarm payload together with its clearing time.
type HistoryEntry struct {
	Alarm     types.CanonicalAlarm `json:"alarm"`
	ClearedAt time.Time            `json:"cleared_at"`
}

// GetLatestHistory retrieves the most recent history entry for an id; an
// alarm that cleared more than once has several. Returns nil when the id
// never cleared.
func (s *Store) GetLatestHistory(ctx context.Context, alarmID string) (*HistoryEntry, error) {
	var entry HistoryEntry
	var payload []byte
	err := s.db.QueryRow(ctx, `
		SELECT alarm, cleared_at
		FROM alarm_history
		WHERE alarm_id = $1
		ORDER BY cleared_at DESC
		LIMIT 1
	`, alarmID).Scan(&payload, &entry.ClearedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &entry.Alarm); err != nil {
		return nil, fmt.Errorf("decode alarm payload: %w", err)
	}
	return &entry, nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// DeleteActive removes one standing alarm by id.
func (s *Store) DeleteActive(ctx context.Context, alarmID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM active_alarms WHERE alarm_id = $1`, alarmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("active alarm not found: %s", alarmID)
	}
	return nil
}

// DeleteHistory removes every history row for an id and reports how many
// went away.
func (s *Store) DeleteHistory(ctx context.Context, alarmID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM alarm_history WHERE alarm_id = $1`, alarmID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("history alarm not found: %s", alarmID)
	}
	return tag.RowsAffected(), nil
}

// PurgeActive deletes all standing alarms.
func (s *Store) PurgeActive(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM active_alarms`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeHistory deletes all history rows.
func (s *Store) PurgeHistory(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM alarm_history`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PruneHistory deletes history rows cleared more than retentionDays ago.
func (s *Store) PruneHistory(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM alarm_history
		WHERE cleared_at < now() - ($1 * interval '1 day')
	`, retentionDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the number of standing alarms.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM active_alarms`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountHistory returns the number of history rows.
func (s *Store) CountHistory(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM alarm_history`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
