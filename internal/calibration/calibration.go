// Package calibration records estimate-vs-actual history for completed
// tasks in a sqlite database, and uses it to suggest a starting estimate
// for a new task based on keyword similarity to past titles. A suggestion
// is only ever a starting point a caller may apply via Task.UpdateRemaining
// — it never substitutes for the core engine's own sentinel-default
// behavior when no estimate has been recorded.
package calibration

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/emiller/scheduler/internal/core"
)

// DB wraps the estimate-history sqlite store.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("calibration: open %s: %w", path, err)
	}
	d := &DB{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("calibration: init schema: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS estimate_history (
		task_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		note TEXT DEFAULT '',
		estimated_minutes REAL DEFAULT 0,
		actual_minutes REAL DEFAULT 0,
		completed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completed_at ON estimate_history(completed_at);
	`
	_, err := d.db.Exec(schema)
	return err
}

// RecordCompletion upserts a history row for a completed task, keyed by
// its ID. Calling this for a task with no estimate records zero for the
// estimated side; SuggestEstimate reads only titles and actual durations,
// so the estimated side does not affect its suggestions.
func (d *DB) RecordCompletion(task *core.Task) error {
	if !task.IsCompleted() {
		return &core.StateError{Reason: "cannot record history for a task that is not completed"}
	}
	var estimatedMinutes float64
	if est := task.Estimate(); est != nil {
		estimatedMinutes = est.Mean().Minutes()
	}
	_, err := d.db.Exec(`
		INSERT INTO estimate_history (task_id, title, note, estimated_minutes, actual_minutes, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			estimated_minutes = excluded.estimated_minutes,
			actual_minutes = excluded.actual_minutes,
			completed_at = excluded.completed_at
	`, task.ID.FullString(), task.Title, task.Note, estimatedMinutes, task.ActualTotal.Minutes(), task.Status().CompletedAt)
	return err
}

type historyEntry struct {
	Title         string
	ActualMinutes float64
}

// SuggestEstimate returns a single-point estimate for a new task titled
// title, derived from a weighted average of the actual durations of the
// most keyword-similar completed tasks in history. The second return
// value is false when no history entry is similar enough to use.
func (d *DB) SuggestEstimate(title string, limit int) (core.Estimate, bool, error) {
	rows, err := d.db.Query(`SELECT title, actual_minutes FROM estimate_history WHERE actual_minutes > 0 ORDER BY completed_at DESC LIMIT 200`)
	if err != nil {
		return core.Estimate{}, false, err
	}
	defer rows.Close()

	var candidates []historyEntry
	for rows.Next() {
		var e historyEntry
		if err := rows.Scan(&e.Title, &e.ActualMinutes); err != nil {
			return core.Estimate{}, false, err
		}
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		return core.Estimate{}, false, err
	}

	type scored struct {
		historyEntry
		score float64
	}
	scoredCandidates := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		s := keywordSimilarity(title, c.Title)
		if s > 0 {
			scoredCandidates = append(scoredCandidates, scored{c, s})
		}
	}
	if len(scoredCandidates) == 0 {
		return core.Estimate{}, false, nil
	}
	sort.Slice(scoredCandidates, func(i, j int) bool { return scoredCandidates[i].score > scoredCandidates[j].score })
	if limit > 0 && len(scoredCandidates) > limit {
		scoredCandidates = scoredCandidates[:limit]
	}

	var weightedMinutes, totalWeight float64
	for _, c := range scoredCandidates {
		weightedMinutes += c.ActualMinutes * c.score
		totalWeight += c.score
	}
	if totalWeight == 0 {
		return core.Estimate{}, false, nil
	}
	meanMinutes := weightedMinutes / totalWeight
	return core.NewEstimate(time.Duration(meanMinutes * float64(time.Minute))), true, nil
}

// keywordSimilarity is the Jaccard coefficient over normalized word sets.
func keywordSimilarity(a, b string) float64 {
	wordsA := tokenize(a)
	wordsB := tokenize(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	matches := 0
	union := len(setA)
	seenB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if seenB[w] {
			continue
		}
		seenB[w] = true
		if setA[w] {
			matches++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(matches) / float64(union)
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true, "as": true,
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ".,!?;:\"'()-[]{}/*")
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}
