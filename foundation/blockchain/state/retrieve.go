package state

import (
	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	gen := s.genesis
	gen.Candidates = append([]string(nil), s.genesis.Candidates...)
	return gen
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.chain.Latest()
}

// RetrievePending returns a copy of the votes waiting to be mined.
func (s *State) RetrievePending() []database.Vote {
	return s.mempool.Copy()
}

// RetrieveVoters returns every voter the ledger has admitted.
func (s *State) RetrieveVoters() []string {
	return s.mempool.Voters()
}

// HasVoted reports whether the voter id has been admitted.
func (s *State) HasVoted(voterID string) bool {
	return s.mempool.HasVoted(voterID)
}

// ChainLength returns the number of blocks including genesis.
func (s *State) ChainLength() int {
	return s.chain.Length()
}

// ExportChain returns a snapshot of every block for rendering.
func (s *State) ExportChain() []database.BlockData {
	blocks := s.chain.Blocks()

	bds := make([]database.BlockData, len(blocks))
	for i, blk := range blocks {
		bds[i] = database.NewBlockData(blk)
	}

	return bds
}

// ValidateChain re-checks the full chain and reports the first violation.
func (s *State) ValidateChain() database.ValidationReport {
	report := s.chain.Validate()
	if !report.OK {
		s.evHandler("state: ValidateChain: WARNING: %s", report.Err())
	}

	return report
}
