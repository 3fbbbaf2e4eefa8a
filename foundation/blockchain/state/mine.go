package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
)

// Set of errors the ledger returns beyond the ones from the database
// and mempool packages.
var (
	ErrNoTransactions    = errors.New("no votes in mempool")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// BlockSummary describes a block just appended to the chain.
type BlockSummary struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
	Votes  int    `json:"votes"`
}

// =============================================================================

// SubmitVote admits the vote and, if accepted, mines a block holding only
// that vote and appends it to the chain before returning. Votes left pending
// by an earlier cancelled mine are not picked up. A rejected vote leaves the
// ledger unchanged.
func (s *State) SubmitVote(ctx context.Context, voterID string, candidate string, difficulty uint) (BlockSummary, error) {
	if err := s.checkDifficulty(difficulty); err != nil {
		return BlockSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The mempool checks the voter before the vote content.
	vote := database.Vote{
		VoterID:   voterID,
		Candidate: candidate,
		TimeStamp: uint64(s.now().UTC().UnixMilli()),
	}

	if err := s.mempool.Admit(vote); err != nil {
		s.evHandler("state: SubmitVote: REJECTED: vote[%s]: %s", vote, err)
		return BlockSummary{}, err
	}

	s.evHandler("state: SubmitVote: admitted: vote[%s]", vote)

	vote, _ = s.mempool.Take(vote.VoterID)

	return s.mineNewBlock(ctx, []database.Vote{vote}, difficulty)
}

// MinePending mines a block from whatever votes are waiting in the mempool.
// Votes only wait there after a mining operation for them was cancelled.
func (s *State) MinePending(ctx context.Context, difficulty uint) (BlockSummary, error) {
	if err := s.checkDifficulty(difficulty); err != nil {
		return BlockSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	votes := s.mempool.Drain()
	if len(votes) == 0 {
		return BlockSummary{}, ErrNoTransactions
	}

	return s.mineNewBlock(ctx, votes, difficulty)
}

// =============================================================================

// mineNewBlock puts the votes, already taken out of the mempool, into a new
// block, solves the POW puzzle and appends the block. On failure the votes
// go back to the mempool. The caller must hold s.mu.
func (s *State) mineNewBlock(ctx context.Context, votes []database.Vote, difficulty uint) (BlockSummary, error) {
	s.evHandler("state: mineNewBlock: MINING: started")
	defer s.evHandler("state: mineNewBlock: MINING: completed")

	if s.mineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mineTimeout)
		defer cancel()
	}

	block, err := database.POW(ctx, s.chain.Latest(), votes, difficulty, s.now(), s.evHandler)
	if err != nil {
		s.mempool.Restore(votes)
		s.evHandler("state: mineNewBlock: MINING: WARNING: votes[%d] returned to mempool: %s", len(votes), err)
		return BlockSummary{}, fmt.Errorf("mining block: %w", err)
	}

	if err := s.chain.Append(block); err != nil {
		s.mempool.Restore(votes)
		s.evHandler("state: mineNewBlock: MINING: ERROR: %s", err)
		return BlockSummary{}, fmt.Errorf("appending block: %w", err)
	}

	s.evHandler("viewer: block: number[%d]: hash[%s]: votes[%d]", block.Header.Number, block.Hash(), len(block.Votes))

	bs := BlockSummary{
		Number: block.Header.Number,
		Hash:   block.Hash(),
		Votes:  len(block.Votes),
	}

	return bs, nil
}

func (s *State) checkDifficulty(difficulty uint) error {
	if difficulty > s.maxDifficulty {
		return fmt.Errorf("%w: %d exceeds max %d", ErrInvalidDifficulty, difficulty, s.maxDifficulty)
	}
	return nil
}
