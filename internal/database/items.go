package database

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// InsertItem inserts a classified item. Returns the ID on success, 0 if the
// URL is already stored.
func (db *DB) InsertItem(item *Item) (int64, error) {
	cats, err := json.Marshal(item.TechCategories)
	if err != nil {
		cats = []byte("[]")
	}
	result, err := db.conn.Exec(
		`INSERT INTO items (url, title, summary, source, category, published_at,
			content_type, tech_categories, confidence, reasoning, via, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.URL, item.Title, item.Summary, item.Source, item.Category,
		item.PublishedAt, item.ContentType, string(cats), item.Confidence,
		item.Reasoning, item.Via, item.RunID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, nil
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetItemsForRun returns the items stored by one run, newest first.
func (db *DB) GetItemsForRun(runID int64) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, url, title, summary, source, category, published_at,
			content_type, tech_categories, confidence, reasoning, via, run_id, created_at
		FROM items WHERE run_id = ? ORDER BY id DESC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetRecentItems returns the most recent items across all runs.
func (db *DB) GetRecentItems(limit int) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, url, title, summary, source, category, published_at,
			content_type, tech_categories, confidence, reasoning, via, run_id, created_at
		FROM items ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var summary, source, category, published, contentType, cats, reasoning, via sql.NullString
		var runID sql.NullInt64
		if err := rows.Scan(&it.ID, &it.URL, &it.Title, &summary, &source,
			&category, &published, &contentType, &cats, &it.Confidence,
			&reasoning, &via, &runID, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Summary = summary.String
		it.Source = source.String
		it.Category = category.String
		it.PublishedAt = published.String
		it.ContentType = contentType.String
		it.Reasoning = reasoning.String
		it.Via = via.String
		it.RunID = runID.Int64
		if cats.String != "" {
			_ = json.Unmarshal([]byte(cats.String), &it.TechCategories)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
