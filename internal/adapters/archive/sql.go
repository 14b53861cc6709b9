package archive

import (
	"database/sql"

	"github.com/okian/kartelo/internal/domain/types"
)

const createRatingsTable = `CREATE TABLE IF NOT EXISTS race_ratings (
	seq INTEGER NOT NULL,
	race_id TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	map TEXT NOT NULL,
	player TEXT NOT NULL,
	rating REAL NOT NULL,
	PRIMARY KEY (seq, player));`

const createStandingsTable = `CREATE TABLE IF NOT EXISTS standings (
	player TEXT PRIMARY KEY,
	rating REAL NOT NULL,
	peak REAL NOT NULL,
	races INTEGER NOT NULL);`

const (
	clearRatings   = `DELETE FROM race_ratings`
	clearStandings = `DELETE FROM standings`

	insertRating = `INSERT INTO race_ratings (seq, race_id, date, time, map, player, rating)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertStanding = `INSERT INTO standings (player, rating, peak, races) VALUES (?, ?, ?, ?)`

	selectStandings = `SELECT player, rating, peak, races FROM standings ORDER BY rating DESC, player ASC`
	selectHistory   = `SELECT date, rating FROM race_ratings WHERE player = ? ORDER BY seq ASC`
)

func scanStandings(rows *sql.Rows) ([]types.Entry, error) {
	defer rows.Close()

	out := make([]types.Entry, 0)
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.Player, &e.Rating, &e.Peak, &e.Races); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanHistory(rows *sql.Rows) ([]types.HistoryPoint, error) {
	defer rows.Close()

	out := make([]types.HistoryPoint, 0)
	for rows.Next() {
		var p types.HistoryPoint
		if err := rows.Scan(&p.Date, &p.Rating); err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
