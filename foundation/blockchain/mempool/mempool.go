// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
)

// ErrAlreadyVoted is returned when a voter id has been admitted before.
var ErrAlreadyVoted = errors.New("voter has already voted")

// BallotFunc reports whether a candidate may receive votes.
type BallotFunc func(candidate string) bool

// =============================================================================

// Mempool represents the set of votes waiting to be mined, in the order
// they were admitted, and the set of every voter ever admitted.
type Mempool struct {
	mu       sync.RWMutex
	pending  []database.Vote
	seen     map[string]struct{}
	onBallot BallotFunc
}

// New constructs a new mempool that accepts any non-empty candidate.
func New() *Mempool {
	return NewWithBallot(nil)
}

// NewWithBallot constructs a new mempool that only accepts candidates the
// ballot function allows.
func NewWithBallot(onBallot BallotFunc) *Mempool {
	if onBallot == nil {
		onBallot = func(string) bool { return true }
	}

	return &Mempool{
		seen:     make(map[string]struct{}),
		onBallot: onBallot,
	}
}

// Admit adds the vote to the pending set. The vote is refused, and nothing
// changes, if the voter was admitted before or the vote is malformed. A
// voter admitted before is refused with ErrAlreadyVoted whatever the vote
// carries.
func (mp *Mempool) Admit(vote database.Vote) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.seen[vote.VoterID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyVoted, vote.VoterID)
	}

	if err := vote.Validate(); err != nil {
		return err
	}

	if !mp.onBallot(vote.Candidate) {
		return fmt.Errorf("%w: candidate %q is not on the ballot", database.ErrInvalidTransaction, vote.Candidate)
	}

	mp.pending = append(mp.pending, vote)
	mp.seen[vote.VoterID] = struct{}{}

	return nil
}

// Take removes and returns the pending vote for the voter. Other pending
// votes are left in place.
func (mp *Mempool) Take(voterID string) (database.Vote, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i, vote := range mp.pending {
		if vote.VoterID == voterID {
			mp.pending = append(mp.pending[:i:i], mp.pending[i+1:]...)
			return vote, true
		}
	}

	return database.Vote{}, false
}

// Drain removes and returns all the pending votes.
func (mp *Mempool) Drain() []database.Vote {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	votes := mp.pending
	mp.pending = nil

	return votes
}

// Restore puts votes that were drained but never mined back at the front of
// the pending set. Only voters already admitted are accepted back.
func (mp *Mempool) Restore(votes []database.Vote) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	restored := make([]database.Vote, 0, len(votes)+len(mp.pending))
	for _, vote := range votes {
		if _, exists := mp.seen[vote.VoterID]; exists {
			restored = append(restored, vote)
		}
	}

	mp.pending = append(restored, mp.pending...)
}

// Count returns the current number of pending votes.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pending)
}

// Copy returns a copy of the pending votes in admission order.
func (mp *Mempool) Copy() []database.Vote {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Vote, len(mp.pending))
	copy(cpy, mp.pending)

	return cpy
}

// HasVoted reports whether the voter has ever been admitted.
func (mp *Mempool) HasVoted(voterID string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.seen[voterID]
	return exists
}

// Voters returns every voter ever admitted, sorted.
func (mp *Mempool) Voters() []string {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	voters := make([]string, 0, len(mp.seen))
	for voterID := range mp.seen {
		voters = append(voters, voterID)
	}
	sort.Strings(voters)

	return voters
}
