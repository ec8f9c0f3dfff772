// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the boost registry state machine: stake
// lifecycle, escrow custody, vehicle attachment and baseline points.
// Every operation is serialized and atomic; a failure leaves registry
// state exactly as it was and emits nothing.
package staking

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/log"
	"github.com/DIMO-Network/earnings-boost/metrics"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/staking/attach"
	"github.com/DIMO-Network/earnings-boost/staking/escrow"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/staking/points"
	"github.com/DIMO-Network/earnings-boost/staking/reverts"
	"github.com/DIMO-Network/earnings-boost/staking/stakes"
	"github.com/DIMO-Network/earnings-boost/state"
)

// Address is the canonical storage space of the staking registry.
var Address = boost.BytesToAddress([]byte("boost-staking"))

var (
	logger = log.WithContext("pkg", "staking")

	slotTotalLocked = sslot.SlotFor("total-locked")

	metricOps = metrics.LazyLoadCounterVec("staking_operation_count", []string{"op", "outcome"})

	wholeToken = big.NewInt(1e18)
)

// VehicleRegistry is the external registry attachments are checked
// against. Lookups are result-style: ok=false means the id is not
// registered, errors are infrastructure failures.
type VehicleRegistry interface {
	Exists(id *big.Int) (bool, error)
	OwnerOf(id *big.Int) (boost.Address, bool, error)
}

// Staking is the boost registry facade.
type Staking struct {
	mu sync.Mutex

	state   *state.State
	table   *levels.Table
	clock   Clock
	emitter *events.Emitter

	stakes      *stakes.Service
	escrow      *escrow.Service
	attachments *attach.Service
	points      *points.Service
	vehicles    VehicleRegistry

	totalLocked *sslot.Uint256
}

// New creates the registry at the given space address.
func New(
	addr boost.Address,
	st *state.State,
	table *levels.Table,
	ledger escrow.Ledger,
	vehicleSet VehicleRegistry,
	clock Clock,
	emitter *events.Emitter,
) *Staking {
	sctx := sslot.NewContext(addr, st)
	stakeSvc := stakes.New(sctx)
	attachSvc := attach.New(sctx)

	return &Staking{
		state:       st,
		table:       table,
		clock:       clock,
		emitter:     emitter,
		stakes:      stakeSvc,
		escrow:      escrow.New(sctx, ledger),
		attachments: attachSvc,
		points:      points.New(stakeSvc, attachSvc, table, vehicleSet),
		vehicles:    vehicleSet,
		totalLocked: sslot.NewUint256(sctx, slotTotalLocked),
	}
}

//
// Getters - no state change
//

// Levels returns the level table.
func (s *Staking) Levels() *levels.Table {
	return s.table
}

// Clock returns the engine's time oracle.
func (s *Staking) Clock() Clock {
	return s.clock
}

// GetStake returns the record and owner of stakeID. Withdrawn and unknown
// ids come back as an empty record.
func (s *Staking) GetStake(stakeID *big.Int) (*stakes.Stake, boost.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stakeID == nil || stakeID.Sign() <= 0 {
		return &stakes.Stake{}, boost.Address{}, nil
	}
	rec, err := s.stakes.Get(stakeID)
	if err != nil {
		return nil, boost.Address{}, err
	}
	owner, err := s.stakes.Owner(stakeID)
	if err != nil {
		return nil, boost.Address{}, err
	}
	return rec, owner, nil
}

// OwnerOf returns who owns stakeID, ok=false when nobody does.
func (s *Staking) OwnerOf(stakeID *big.Int) (boost.Address, bool, error) {
	_, owner, err := s.GetStake(stakeID)
	if err != nil {
		return boost.Address{}, false, err
	}
	return owner, !owner.IsZero(), nil
}

// StakeIDForVehicle returns the stake vehicleID is attached to, zero when
// unattached.
func (s *Staking) StakeIDForVehicle(vehicleID *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vehicleID == nil || vehicleID.Sign() <= 0 {
		return new(big.Int), nil
	}
	return s.attachments.StakeOf(vehicleID)
}

// EscrowOf returns the escrow account of staker, ok=false when none was
// created yet.
func (s *Staking) EscrowOf(staker boost.Address) (boost.Address, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escrow.Lookup(staker)
}

// BaselinePoints returns the points vehicleID earns right now: zero when
// unattached, the vehicle is gone, or the lock has expired.
func (s *Staking) BaselinePoints(vehicleID *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points.PointsFor(vehicleID, s.clock.Now())
}

// TotalLocked returns the amount currently held across all escrows on
// behalf of live stakes.
func (s *Staking) TotalLocked() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked.Get()
}

// StakesIssued returns how many stake ids have ever been minted.
func (s *Staking) StakesIssued() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stakes.Issued()
}

//
// Setters - state change
//

// Stake locks the level's amount from staker into escrow and mints a new
// stake id, optionally attaching vehicleID right away.
func (s *Staking) Stake(staker boost.Address, level uint8, vehicleID *big.Int) (*big.Int, error) {
	logger.Debug("staking", "staker", staker, "level", level, "vehicle", vehicleID)

	var id *big.Int
	err := s.update("stake", func(now uint64) error {
		var err error
		id, err = s.stakeLocked(now, staker, level, vehicleID)
		return err
	})
	if err != nil {
		logger.Info("stake failed", "staker", staker, "error", err)
		return nil, err
	}

	logger.Info("staked", "staker", staker, "id", id, "level", level)
	return id, nil
}

// UpgradeStake moves stakeID to a strictly higher level, pulling in the
// amount difference and restarting the lock at the new level's duration.
func (s *Staking) UpgradeStake(staker boost.Address, stakeID *big.Int, newLevel uint8, vehicleID *big.Int) error {
	logger.Debug("upgrading stake", "staker", staker, "id", stakeID, "newLevel", newLevel, "vehicle", vehicleID)

	err := s.update("upgrade", func(now uint64) error {
		return s.upgradeLocked(now, staker, stakeID, newLevel, vehicleID)
	})
	if err != nil {
		logger.Info("upgrade failed", "id", stakeID, "error", err)
		return err
	}

	logger.Info("upgraded stake", "id", stakeID, "newLevel", newLevel)
	return nil
}

// ExtendStaking restarts stakeID's lock at its current level's full
// duration. Expired positions may be extended, which revives their
// points.
func (s *Staking) ExtendStaking(staker boost.Address, stakeID *big.Int) error {
	logger.Debug("extending stake", "staker", staker, "id", stakeID)

	err := s.update("extend", func(now uint64) error {
		return s.extendLocked(now, staker, stakeID)
	})
	if err != nil {
		logger.Info("extend failed", "id", stakeID, "error", err)
		return err
	}

	logger.Info("extended stake", "id", stakeID)
	return nil
}

// Withdraw releases an expired stake back to its owner and tombstones the
// record. Withdrawal is allowed only strictly after the lock end instant.
func (s *Staking) Withdraw(staker boost.Address, stakeID *big.Int) (*big.Int, error) {
	logger.Debug("withdrawing stake", "staker", staker, "id", stakeID)

	var amount *big.Int
	err := s.update("withdraw", func(now uint64) error {
		var err error
		amount, err = s.withdrawLocked(now, staker, stakeID)
		return err
	})
	if err != nil {
		logger.Info("withdraw failed", "id", stakeID, "error", err)
		return nil, err
	}

	logger.Info("withdrew stake", "id", stakeID, "amount", new(big.Int).Div(amount, wholeToken))
	return amount, nil
}

// WithdrawMany withdraws several stakes in one atomic batch: the first
// failing element aborts the whole call. It returns the total released.
func (s *Staking) WithdrawMany(staker boost.Address, stakeIDs []*big.Int) (*big.Int, error) {
	logger.Debug("withdrawing stakes", "staker", staker, "count", len(stakeIDs))

	total := new(big.Int)
	err := s.update("withdraw_many", func(now uint64) error {
		for _, stakeID := range stakeIDs {
			amount, err := s.withdrawLocked(now, staker, stakeID)
			if err != nil {
				return errors.WithMessagef(err, "stake %v", stakeID)
			}
			total.Add(total, amount)
		}
		return nil
	})
	if err != nil {
		logger.Info("batch withdraw failed", "staker", staker, "error", err)
		return nil, err
	}

	logger.Info("withdrew stakes", "staker", staker, "count", len(stakeIDs), "total", new(big.Int).Div(total, wholeToken))
	return total, nil
}

// AttachVehicle points vehicleID's boost at stakeID, stealing the vehicle
// from an expired holder if it has one.
func (s *Staking) AttachVehicle(staker boost.Address, stakeID, vehicleID *big.Int) error {
	logger.Debug("attaching vehicle", "staker", staker, "id", stakeID, "vehicle", vehicleID)

	err := s.update("attach", func(now uint64) error {
		return s.attachLocked(now, staker, stakeID, vehicleID)
	})
	if err != nil {
		logger.Info("attach failed", "id", stakeID, "vehicle", vehicleID, "error", err)
		return err
	}

	logger.Info("attached vehicle", "id", stakeID, "vehicle", vehicleID)
	return nil
}

// DetachVehicle ends vehicleID's boost. The stake's owner may always
// detach; the vehicle's current owner may too.
func (s *Staking) DetachVehicle(caller boost.Address, vehicleID *big.Int) error {
	logger.Debug("detaching vehicle", "caller", caller, "vehicle", vehicleID)

	err := s.update("detach", func(now uint64) error {
		return s.detachLocked(now, caller, vehicleID)
	})
	if err != nil {
		logger.Info("detach failed", "vehicle", vehicleID, "error", err)
		return err
	}

	logger.Info("detached vehicle", "vehicle", vehicleID)
	return nil
}

// Transfer reassigns stakeID from one staker to another, moving its full
// amount between their escrows. Lock end, level and any attachment ride
// along unchanged.
func (s *Staking) Transfer(from, to boost.Address, stakeID *big.Int) error {
	logger.Debug("transferring stake", "from", from, "to", to, "id", stakeID)

	err := s.update("transfer", func(now uint64) error {
		return s.transferLocked(now, from, to, stakeID)
	})
	if err != nil {
		logger.Info("transfer failed", "id", stakeID, "error", err)
		return err
	}

	logger.Info("transferred stake", "id", stakeID, "from", from, "to", to)
	return nil
}

// DelegateVotingPower forwards the voting power of staker's escrow to
// delegatee. The delegation is a property of the escrow account, so it
// survives withdrawals.
func (s *Staking) DelegateVotingPower(staker, delegatee boost.Address) error {
	logger.Debug("delegating voting power", "staker", staker, "delegatee", delegatee)

	err := s.update("delegate", func(now uint64) error {
		return s.escrow.Delegate(staker, staker, delegatee)
	})
	if err != nil {
		logger.Info("delegate failed", "staker", staker, "error", err)
		return err
	}

	logger.Info("delegated voting power", "staker", staker, "delegatee", delegatee)
	return nil
}

//
// Operation internals. All run under the facade mutex inside a checkpoint.
//

// Mutate runs fn under the engine lock with the operations' commit
// discipline. Side channels that write the shared state, such as the solo
// dev endpoints, must come through here so the journal only ever sees one
// writer.
func (s *Staking) Mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	if err := s.state.Stage().Commit(); err != nil {
		s.state.RevertTo(checkpoint)
		return errors.Wrap(err, "commit staking state")
	}
	s.state.RevertTo(checkpoint)
	return nil
}

// update runs fn atomically: on success the journaled writes are committed
// and staged events flushed, on failure both are discarded.
func (s *Staking) update(op string, fn func(now uint64) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	checkpoint := s.state.NewCheckpoint()

	if err := fn(now); err != nil {
		s.state.RevertTo(checkpoint)
		s.emitter.Discard()
		s.countOp(op, err)
		return err
	}

	if err := s.state.Stage().Commit(); err != nil {
		s.state.RevertTo(checkpoint)
		s.emitter.Discard()
		s.countOp(op, err)
		return errors.Wrap(err, "commit staking state")
	}

	// the overlay is persisted now; drop it so the journal stays flat
	s.state.RevertTo(checkpoint)
	s.emitter.Flush()
	s.countOp(op, nil)
	return nil
}

func (s *Staking) countOp(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case reverts.IsRevert(err):
		outcome = "revert"
	default:
		outcome = "error"
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
}

func (s *Staking) stakeLocked(now uint64, staker boost.Address, level uint8, vehicleID *big.Int) (*big.Int, error) {
	if staker.IsZero() {
		return nil, reverts.ErrUnauthorized
	}
	lvl, ok := s.table.Get(level)
	if !ok {
		return nil, reverts.ErrInvalidLevel
	}

	stakeID, err := s.stakes.Mint()
	if err != nil {
		return nil, err
	}
	account, _, err := s.escrow.GetOrCreate(staker)
	if err != nil {
		return nil, err
	}
	if err := s.escrow.Deposit(staker, account, lvl.Amount); err != nil {
		return nil, err
	}

	rec := &stakes.Stake{
		Level:     level,
		Amount:    lvl.Amount,
		LockEnd:   now + lvl.LockDuration,
		VehicleID: new(big.Int),
	}
	if err := s.stakes.Update(stakeID, rec); err != nil {
		return nil, err
	}
	if err := s.stakes.SetOwner(stakeID, staker); err != nil {
		return nil, err
	}
	if err := s.totalLocked.Add(lvl.Amount); err != nil {
		return nil, err
	}

	s.emitter.Stage(now, events.StakeCreated(staker, stakeID, account, level, lvl.Amount, rec.LockEnd))

	if vehicleID != nil && vehicleID.Sign() != 0 {
		exists, err := s.vehicles.Exists(vehicleID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, reverts.ErrInvalidVehicleID
		}
		if err := s.freeVehicle(now, vehicleID); err != nil {
			return nil, err
		}
		if err := s.attachTo(now, staker, stakeID, rec, vehicleID); err != nil {
			return nil, err
		}
	}
	return stakeID, nil
}

func (s *Staking) upgradeLocked(now uint64, staker boost.Address, stakeID *big.Int, newLevel uint8, vehicleID *big.Int) error {
	rec, err := s.getOwned(staker, stakeID)
	if err != nil {
		return err
	}
	if newLevel <= rec.Level {
		return reverts.ErrInvalidLevel
	}
	lvl, ok := s.table.Get(newLevel)
	if !ok {
		return reverts.ErrInvalidLevel
	}
	diff := new(big.Int).Sub(lvl.Amount, rec.Amount)
	if diff.Sign() <= 0 {
		// level amounts increase strictly by index, so the record must
		// predate a table change; refuse rather than refund
		return reverts.ErrInvalidLevel
	}

	account, ok, err := s.escrow.Lookup(staker)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("escrow record missing for stake owner")
	}
	if err := s.escrow.Deposit(staker, account, diff); err != nil {
		return err
	}

	rec.Level = newLevel
	rec.Amount = lvl.Amount
	rec.LockEnd = now + lvl.LockDuration
	if err := s.stakes.Update(stakeID, rec); err != nil {
		return err
	}
	if err := s.totalLocked.Add(diff); err != nil {
		return err
	}

	// attachment change, then the final upgraded notification
	switch {
	case vehicleID == nil || vehicleID.Sign() == 0:
		if rec.Attached() {
			if err := s.detachFrom(now, staker, stakeID, rec, rec.VehicleID); err != nil {
				return err
			}
		}
	case rec.Attached() && rec.VehicleID.Cmp(vehicleID) == 0:
		// already attached to this vehicle
	default:
		exists, err := s.vehicles.Exists(vehicleID)
		if err != nil {
			return err
		}
		if !exists {
			return reverts.ErrInvalidVehicleID
		}
		if err := s.freeVehicle(now, vehicleID); err != nil {
			return err
		}
		if rec.Attached() {
			if err := s.detachFrom(now, staker, stakeID, rec, rec.VehicleID); err != nil {
				return err
			}
		}
		if err := s.attachTo(now, staker, stakeID, rec, vehicleID); err != nil {
			return err
		}
	}

	s.emitter.Stage(now, events.StakeCreated(staker, stakeID, account, newLevel, rec.Amount, rec.LockEnd))
	return nil
}

func (s *Staking) extendLocked(now uint64, staker boost.Address, stakeID *big.Int) error {
	rec, err := s.getOwned(staker, stakeID)
	if err != nil {
		return err
	}
	lvl, ok := s.table.Get(rec.Level)
	if !ok {
		return errors.Errorf("staking level %d missing from table", rec.Level)
	}

	rec.LockEnd = now + lvl.LockDuration
	if err := s.stakes.Update(stakeID, rec); err != nil {
		return err
	}

	s.emitter.Stage(now, events.StakeExtended(staker, stakeID, rec.LockEnd))
	return nil
}

func (s *Staking) withdrawLocked(now uint64, staker boost.Address, stakeID *big.Int) (*big.Int, error) {
	rec, err := s.getOwned(staker, stakeID)
	if err != nil {
		return nil, err
	}
	if !rec.Expired(now) {
		return nil, reverts.ErrTokensStillLocked
	}

	if rec.Attached() {
		vehicleID := rec.VehicleID
		s.attachments.Clear(vehicleID)
		s.emitter.Stage(now, events.VehicleDetached(staker, stakeID, vehicleID))
	}

	account, ok, err := s.escrow.Lookup(staker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("escrow record missing for stake owner")
	}
	if err := s.escrow.Release(account, staker, rec.Amount); err != nil {
		return nil, err
	}
	if err := s.totalLocked.Sub(rec.Amount); err != nil {
		return nil, err
	}

	s.stakes.Remove(stakeID)
	s.emitter.Stage(now, events.StakeWithdrawn(staker, stakeID, rec.Amount, s.pointsValue(rec.Level)))
	return rec.Amount, nil
}

func (s *Staking) attachLocked(now uint64, staker boost.Address, stakeID, vehicleID *big.Int) error {
	rec, err := s.getOwned(staker, stakeID)
	if err != nil {
		return err
	}
	if vehicleID == nil || vehicleID.Sign() <= 0 {
		return reverts.ErrInvalidVehicleID
	}
	exists, err := s.vehicles.Exists(vehicleID)
	if err != nil {
		return err
	}
	if !exists {
		return reverts.ErrInvalidVehicleID
	}

	holder, err := s.attachments.StakeOf(vehicleID)
	if err != nil {
		return err
	}
	if holder.Cmp(stakeID) == 0 {
		return reverts.ErrAlreadyAttached
	}
	if err := s.freeVehicle(now, vehicleID); err != nil {
		return err
	}
	if rec.Attached() {
		if err := s.detachFrom(now, staker, stakeID, rec, rec.VehicleID); err != nil {
			return err
		}
	}
	return s.attachTo(now, staker, stakeID, rec, vehicleID)
}

func (s *Staking) detachLocked(now uint64, caller boost.Address, vehicleID *big.Int) error {
	if vehicleID == nil || vehicleID.Sign() <= 0 {
		return reverts.ErrNoActiveStaking
	}
	stakeID, err := s.attachments.StakeOf(vehicleID)
	if err != nil {
		return err
	}
	if stakeID.Sign() == 0 {
		return reverts.ErrNoActiveStaking
	}
	owner, err := s.stakes.Owner(stakeID)
	if err != nil {
		return err
	}

	if caller != owner {
		// a burned vehicle has no verifiable owner; only the staker may
		// detach it then
		vehicleOwner, ok, err := s.vehicles.OwnerOf(vehicleID)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrInvalidVehicleID
		}
		if vehicleOwner != caller {
			return reverts.ErrUnauthorized
		}
	}

	rec, err := s.stakes.Get(stakeID)
	if err != nil {
		return err
	}
	return s.detachFrom(now, owner, stakeID, rec, vehicleID)
}

func (s *Staking) transferLocked(now uint64, from, to boost.Address, stakeID *big.Int) error {
	rec, err := s.getOwned(from, stakeID)
	if err != nil {
		return err
	}
	if to.IsZero() {
		return reverts.ErrUnauthorized
	}

	fromAccount, ok, err := s.escrow.Lookup(from)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("escrow record missing for stake owner")
	}
	toAccount, _, err := s.escrow.GetOrCreate(to)
	if err != nil {
		return err
	}
	if err := s.escrow.Move(fromAccount, toAccount, rec.Amount); err != nil {
		return err
	}
	if err := s.stakes.SetOwner(stakeID, to); err != nil {
		return err
	}

	// indexers see the stake leave one staker and appear at the other,
	// with level, amount and lock end unchanged
	s.emitter.Stage(now, events.StakeWithdrawn(from, stakeID, rec.Amount, s.pointsValue(rec.Level)))
	s.emitter.Stage(now, events.StakeCreated(to, stakeID, toAccount, rec.Level, rec.Amount, rec.LockEnd))
	return nil
}

// getOwned loads stakeID and checks staker owns a live record; anything
// else reads as an invalid stake id, nonexistent and not-owned alike.
func (s *Staking) getOwned(staker boost.Address, stakeID *big.Int) (*stakes.Stake, error) {
	if stakeID == nil || stakeID.Sign() <= 0 {
		return nil, reverts.ErrInvalidStakeID
	}
	rec, err := s.stakes.Get(stakeID)
	if err != nil {
		return nil, err
	}
	if rec.IsEmpty() {
		return nil, reverts.ErrInvalidStakeID
	}
	owner, err := s.stakes.Owner(stakeID)
	if err != nil {
		return nil, err
	}
	if owner != staker {
		return nil, reverts.ErrInvalidStakeID
	}
	return rec, nil
}

// freeVehicle clears vehicleID for a new attachment. A still-locked holder
// blocks it; an expired holder is force-detached on its owner's behalf.
func (s *Staking) freeVehicle(now uint64, vehicleID *big.Int) error {
	holder, err := s.attachments.StakeOf(vehicleID)
	if err != nil {
		return err
	}
	if holder.Sign() == 0 {
		return nil
	}
	rec, err := s.stakes.Get(holder)
	if err != nil {
		return err
	}
	if !rec.IsEmpty() && !rec.Expired(now) {
		return reverts.ErrAlreadyAttached
	}
	owner, err := s.stakes.Owner(holder)
	if err != nil {
		return err
	}
	return s.detachFrom(now, owner, holder, rec, vehicleID)
}

// detachFrom clears both directions of the attachment and emits a detach
// naming the stake's owner.
func (s *Staking) detachFrom(now uint64, owner boost.Address, stakeID *big.Int, rec *stakes.Stake, vehicleID *big.Int) error {
	rec.VehicleID = new(big.Int)
	if !rec.IsEmpty() {
		if err := s.stakes.Update(stakeID, rec); err != nil {
			return err
		}
	}
	s.attachments.Clear(vehicleID)
	s.emitter.Stage(now, events.VehicleDetached(owner, stakeID, vehicleID))
	return nil
}

// attachTo binds vehicleID to stakeID and emits the attach.
func (s *Staking) attachTo(now uint64, owner boost.Address, stakeID *big.Int, rec *stakes.Stake, vehicleID *big.Int) error {
	rec.VehicleID = new(big.Int).Set(vehicleID)
	if err := s.stakes.Update(stakeID, rec); err != nil {
		return err
	}
	if err := s.attachments.Set(vehicleID, stakeID); err != nil {
		return err
	}
	s.emitter.Stage(now, events.VehicleAttached(owner, stakeID, vehicleID))
	return nil
}

// pointsValue reads the configured points of level, zero if the table no
// longer covers it. Withdrawals must not fail over a config mismatch.
func (s *Staking) pointsValue(level uint8) *big.Int {
	lvl, ok := s.table.Get(level)
	if !ok {
		logger.Warn("staking level missing from table", "level", level)
		return new(big.Int)
	}
	return lvl.Points
}
