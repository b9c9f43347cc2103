package database

import "database/sql"

// InsertRun records the outcome of one pipeline execution.
func (db *DB) InsertRun(run *Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs (started_at, finished_at, total_found, new_items,
			duplicates, llm_count, fallback_count, cache_hits, failed_sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.TotalFound, run.NewItems,
		run.Duplicates, run.LLMCount, run.FallbackCount, run.CacheHits,
		run.FailedSources,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateRun rewrites a run's counts after the pipeline finishes.
func (db *DB) UpdateRun(run *Run) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = ?, total_found = ?, new_items = ?,
			duplicates = ?, llm_count = ?, fallback_count = ?, cache_hits = ?,
			failed_sources = ? WHERE id = ?`,
		run.FinishedAt, run.TotalFound, run.NewItems, run.Duplicates,
		run.LLMCount, run.FallbackCount, run.CacheHits, run.FailedSources,
		run.ID,
	)
	return err
}

// GetStats summarizes the stored corpus for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ByType: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&s.TotalItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&s.TotalRuns); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT content_type, COUNT(*) FROM items
		WHERE content_type IS NOT NULL AND content_type != ''
		GROUP BY content_type`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		s.ByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var finished sql.NullString
	var newItems sql.NullInt64
	err = db.conn.QueryRow(
		"SELECT finished_at, new_items FROM runs ORDER BY id DESC LIMIT 1",
	).Scan(&finished, &newItems)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	s.LastRunAt = finished.String
	s.LastRunItems = int(newItems.Int64)

	return s, nil
}
