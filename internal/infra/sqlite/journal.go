package sqlite

import (
	"database/sql"
	"time"

	"github.com/homesolution/homesolution/internal/domain"
)

// ─── Cost Journal ───────────────────────────────────────────────────────────

// InsertJournalEntry appends a cost journal entry.
func (d *DB) InsertJournalEntry(e domain.JournalEntry) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO cost_journal (ref, timestamp, type, project_code, task, worker_id, amount, days, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Ref, e.Timestamp.Unix(), string(e.Type), e.ProjectCode,
		nullStr(e.Task), nullInt(e.WorkerID), e.Amount, e.Days, nullStr(e.Description),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// JournalEntries returns recent entries, newest first. projectCode 0 means all.
func (d *DB) JournalEntries(projectCode int, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, ref, timestamp, type, project_code, task, worker_id, amount, days, description
		 FROM cost_journal`
	args := []any{}
	if projectCode != 0 {
		query += ` WHERE project_code = ?`
		args = append(args, projectCode)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var ts int64
		var task, desc sql.NullString
		var worker sql.NullInt64
		err := rows.Scan(&e.ID, &e.Ref, &ts, &e.Type, &e.ProjectCode,
			&task, &worker, &e.Amount, &e.Days, &desc)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		if task.Valid {
			e.Task = task.String
		}
		if worker.Valid {
			e.WorkerID = int(worker.Int64)
		}
		if desc.Valid {
			e.Description = desc.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// JournalTotal sums the amount of every entry of typ for a project.
func (d *DB) JournalTotal(projectCode int, typ domain.EventType) (float64, error) {
	var total sql.NullFloat64
	err := d.db.QueryRow(
		`SELECT SUM(amount) FROM cost_journal WHERE project_code = ? AND type = ?`,
		projectCode, string(typ),
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
