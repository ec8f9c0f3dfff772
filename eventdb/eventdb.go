// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb journals the notifications the staking engine emits so
// indexers can replay or filter them later. Records are written in emit
// order and keyed by the emitter's sequence number, which survives
// restarts.
package eventdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/metrics"
)

var metricWrites = metrics.LazyLoadCounterVec("eventdb_write_count", []string{"kind"})

const boostlogSchema = `CREATE TABLE IF NOT EXISTS boostlog (
	seq INTEGER PRIMARY KEY,
	ts INTEGER NOT NULL,
	kind TEXT NOT NULL,
	staker BLOB NOT NULL,
	stakeID BLOB NOT NULL,
	vehicleID BLOB,
	escrow BLOB,
	level INTEGER,
	amount BLOB,
	points BLOB,
	lockEnd INTEGER
);
CREATE INDEX IF NOT EXISTS boostlog_i0 ON boostlog(kind);
CREATE INDEX IF NOT EXISTS boostlog_i1 ON boostlog(staker);
CREATE INDEX IF NOT EXISTS boostlog_i2 ON boostlog(stakeID);
CREATE INDEX IF NOT EXISTS boostlog_i3 ON boostlog(vehicleID);
CREATE INDEX IF NOT EXISTS boostlog_i4 ON boostlog(ts);`

// RangeType selects which column a Range constrains.
type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

// OrderType is the result ordering, by seq.
type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds results to From..To inclusive, in Unit.
type Range struct {
	Unit RangeType `json:"unit"`
	From uint64    `json:"from"`
	To   uint64    `json:"to"`
}

// Options paginate results.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Criteria matches records on every set field. Nil fields match anything.
type Criteria struct {
	Kind      events.Kind    `json:"kind,omitempty"`
	Staker    *boost.Address `json:"staker,omitempty"`
	StakeID   *big.Int       `json:"stakeId,omitempty"`
	VehicleID *big.Int       `json:"vehicleId,omitempty"`
}

// Filter describes a query: records matching any criteria, within the
// range, ordered and paginated. A nil filter returns everything.
type Filter struct {
	CriteriaSet []*Criteria `json:"criteriaSet,omitempty"`
	Range       *Range      `json:"range,omitempty"`
	Options     *Options    `json:"options,omitempty"`
	Order       OrderType   `json:"order,omitempty"`
}

// EventDB is the sqlite-backed notification journal.
type EventDB struct {
	path string
	db   *sql.DB
}

// New opens or creates the journal at path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	if _, err := db.Exec(boostlogSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create event db schema")
	}
	return &EventDB{path: path, db: db}, nil
}

// NewMem creates an in-memory journal.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Path returns where the journal lives.
func (db *EventDB) Path() string {
	return db.path
}

// Close closes the underlying database.
func (db *EventDB) Close() error {
	return db.db.Close()
}

// NewestSeq returns the highest sequence number journaled so far, zero for
// an empty journal. The emitter boots from NewestSeq()+1.
func (db *EventDB) NewestSeq() (uint64, error) {
	row := db.db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM boostlog")
	var seq uint64
	if err := row.Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "query newest seq")
	}
	return seq, nil
}

// Write journals one flushed batch in a single transaction.
func (db *EventDB) Write(batch []*events.Event) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin event write")
	}
	for _, ev := range batch {
		if _, err := tx.Exec(
			"INSERT INTO boostlog(seq, ts, kind, staker, stakeID, vehicleID, escrow, level, amount, points, lockEnd) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			ev.Seq,
			ev.Time,
			string(ev.Kind),
			ev.Staker.Bytes(),
			bigValue(ev.StakeID),
			bigValue(ev.VehicleID),
			addressValue(ev.Escrow),
			levelValue(ev),
			bigValue(ev.Amount),
			bigValue(ev.Points),
			lockEndValue(ev),
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert event seq %d", ev.Seq)
		}
		metricWrites().AddWithLabel(1, map[string]string{"kind": string(ev.Kind)})
	}
	return errors.Wrap(tx.Commit(), "commit event write")
}

// Filter queries journaled events.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*events.Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT seq, ts, kind, staker, stakeID, vehicleID, escrow, level, amount, points, lockEnd FROM boostlog ORDER BY seq ASC")
	}

	stmt := "SELECT seq, ts, kind, staker, stakeID, vehicleID, escrow, level, amount, points, lockEnd FROM boostlog WHERE 1"
	var args []interface{}

	if r := filter.Range; r != nil {
		column := "seq"
		if r.Unit == Time {
			column = "ts"
		}
		stmt += " AND " + column + " >= ?"
		args = append(args, r.From)
		if r.To >= r.From {
			stmt += " AND " + column + " <= ?"
			args = append(args, r.To)
		}
	}

	if len(filter.CriteriaSet) > 0 {
		stmt += " AND ("
		for i, c := range filter.CriteriaSet {
			if i > 0 {
				stmt += " OR "
			}
			stmt += "(1"
			if c.Kind != "" {
				stmt += " AND kind = ?"
				args = append(args, string(c.Kind))
			}
			if c.Staker != nil {
				stmt += " AND staker = ?"
				args = append(args, c.Staker.Bytes())
			}
			if c.StakeID != nil {
				stmt += " AND stakeID = ?"
				args = append(args, c.StakeID.Bytes())
			}
			if c.VehicleID != nil {
				stmt += " AND vehicleID = ?"
				args = append(args, c.VehicleID.Bytes())
			}
			stmt += ")"
		}
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...interface{}) ([]*events.Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var result []*events.Event
	for rows.Next() {
		var (
			seq       uint64
			ts        uint64
			kind      string
			staker    []byte
			stakeID   []byte
			vehicleID []byte
			escrow    []byte
			level     sql.NullInt64
			amount    []byte
			points    []byte
			lockEnd   sql.NullInt64
		)
		if err := rows.Scan(&seq, &ts, &kind, &staker, &stakeID, &vehicleID, &escrow, &level, &amount, &points, &lockEnd); err != nil {
			return nil, errors.Wrap(err, "scan event row")
		}
		ev := &events.Event{
			Seq:       seq,
			Time:      ts,
			Kind:      events.Kind(kind),
			Staker:    boost.BytesToAddress(staker),
			StakeID:   new(big.Int).SetBytes(stakeID),
			VehicleID: bigFromColumn(vehicleID),
			Amount:    bigFromColumn(amount),
			Points:    bigFromColumn(points),
		}
		if escrow != nil {
			addr := boost.BytesToAddress(escrow)
			ev.Escrow = &addr
		}
		if level.Valid {
			if level.Int64 < 0 || level.Int64 > 255 {
				return nil, fmt.Errorf("event seq %d carries level %d out of range", seq, level.Int64)
			}
			ev.Level = uint8(level.Int64)
		}
		if lockEnd.Valid {
			ev.LockEnd = uint64(lockEnd.Int64)
		}
		result = append(result, ev)
	}
	return result, errors.Wrap(rows.Err(), "iterate event rows")
}

func bigValue(v *big.Int) interface{} {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

func bigFromColumn(b []byte) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).SetBytes(b)
}

func addressValue(a *boost.Address) interface{} {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

// levelValue stores the level column only for kinds that carry one.
func levelValue(ev *events.Event) interface{} {
	if ev.Kind == events.KindStakeCreated {
		return int64(ev.Level)
	}
	return nil
}

func lockEndValue(ev *events.Event) interface{} {
	switch ev.Kind {
	case events.KindStakeCreated, events.KindStakeExtended:
		return int64(ev.LockEnd)
	}
	return nil
}
