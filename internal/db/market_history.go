package db

import (
	"log"
	"time"

	"evegem/internal/esi"
)

// GetMarketHistory retrieves cached market history for a region/type pair.
// The second return is false when nothing is cached or the entry is older
// than ttl. A fresh hit with nil entries means the type is known to have no
// history (not tradable); that negative result is cached too so a build
// doesn't re-ask ESI for every dead type.
func (d *DB) GetMarketHistory(regionID, typeID int32, ttl time.Duration) ([]esi.HistoryEntry, bool) {
	var updatedAt string
	var noData int
	err := d.sql.QueryRow(
		"SELECT updated_at, no_data FROM market_history_meta WHERE region_id=? AND type_id=?",
		regionID, typeID,
	).Scan(&updatedAt, &noData)
	if err != nil {
		return nil, false
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || time.Since(t) > ttl {
		return nil, false
	}
	if noData != 0 {
		return nil, true
	}

	rows, err := d.sql.Query(
		"SELECT date, average, highest, lowest, volume, order_count FROM market_history WHERE region_id=? AND type_id=? ORDER BY date",
		regionID, typeID,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var entries []esi.HistoryEntry
	for rows.Next() {
		var e esi.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Average, &e.Highest, &e.Lowest, &e.Volume, &e.OrderCount); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// SetMarketHistory stores market history entries in the cache. Nil or empty
// entries record a negative result. Only the last 90 days are stored, the
// widest index window.
func (d *DB) SetMarketHistory(regionID, typeID int32, entries []esi.HistoryEntry) {
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	tx.Exec("DELETE FROM market_history WHERE region_id=? AND type_id=?", regionID, typeID)

	noData := 1
	if len(entries) > 0 {
		noData = 0
		stmt, err := tx.Prepare("INSERT INTO market_history (region_id, type_id, date, average, highest, lowest, volume, order_count) VALUES (?,?,?,?,?,?,?,?)")
		if err != nil {
			return
		}
		defer stmt.Close()

		cutoff := time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02")
		for _, e := range entries {
			if e.Date >= cutoff {
				stmt.Exec(regionID, typeID, e.Date, e.Average, e.Highest, e.Lowest, e.Volume, e.OrderCount)
			}
		}
	}

	tx.Exec(
		"INSERT OR REPLACE INTO market_history_meta (region_id, type_id, updated_at, no_data) VALUES (?,?,?,?)",
		regionID, typeID, time.Now().UTC().Format(time.RFC3339), noData,
	)

	tx.Commit()
}

// CleanupOldHistory removes history rows older than 90 days and meta rows
// not refreshed in 30 days. Called on server startup.
func (d *DB) CleanupOldHistory() {
	cutoffDate := time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02")
	cutoffMeta := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)

	if res, err := d.sql.Exec("DELETE FROM market_history WHERE date < ?", cutoffDate); err == nil {
		if n, _ := res.RowsAffected(); n > 0 {
			log.Printf("[DB] cleanup: removed %d old history rows", n)
		}
	}
	if res, err := d.sql.Exec("DELETE FROM market_history_meta WHERE updated_at < ?", cutoffMeta); err == nil {
		if n, _ := res.RowsAffected(); n > 0 {
			log.Printf("[DB] cleanup: removed %d stale meta rows", n)
		}
	}
}
