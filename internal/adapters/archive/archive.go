// Package archive keeps the outcome of a replay in a SQLite database so it
// can be queried after the process exits.
package archive

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/okian/kartelo/internal/domain/rating"
	"github.com/okian/kartelo/internal/domain/types"
)

// Archive is a SQLite-backed copy of one replay.
type Archive struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures its tables exist.
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", path)
	}
	for _, stmt := range []string{createRatingsTable, createStandingsTable} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "create archive tables")
		}
	}
	return &Archive{db: db}, nil
}

// Close releases the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save replaces the archived replay with trace and standings in a single
// transaction.
func (a *Archive) Save(ctx context.Context, roster []string, trace []types.TraceRow, standings []rating.Standing) (err error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin archive transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{clearRatings, clearStandings} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "clear archive")
		}
	}

	ins, err := tx.PrepareContext(ctx, insertRating)
	if err != nil {
		return errors.Wrap(err, "prepare rating insert")
	}
	defer ins.Close()
	for seq, row := range trace {
		for _, name := range roster {
			r, ok := row.Ratings[name]
			if !ok {
				continue
			}
			if _, err = ins.ExecContext(ctx, seq, row.RaceID, row.Date, row.Time, row.Map, name, r); err != nil {
				return errors.Wrapf(err, "archive race %s", row.RaceID)
			}
		}
	}

	for _, st := range standings {
		if _, err = tx.ExecContext(ctx, insertStanding, st.Name, st.Rating, st.Peak, st.Races); err != nil {
			return errors.Wrapf(err, "archive standing %q", st.Name)
		}
	}

	return errors.Wrap(tx.Commit(), "commit archive")
}

// Standings returns the archived standings ordered by rating, best first.
// Rank is left zero.
func (a *Archive) Standings(ctx context.Context) ([]types.Entry, error) {
	rows, err := a.db.QueryContext(ctx, selectStandings)
	if err != nil {
		return nil, errors.Wrap(err, "query standings")
	}
	return scanStandings(rows)
}

// History returns a player's rating after every archived race.
func (a *Archive) History(ctx context.Context, player string) ([]types.HistoryPoint, error) {
	rows, err := a.db.QueryContext(ctx, selectHistory, player)
	if err != nil {
		return nil, errors.Wrapf(err, "query history for %q", player)
	}
	return scanHistory(rows)
}
