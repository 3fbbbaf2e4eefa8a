package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Set of errors returned by the query functions.
var (
	ErrNotFound    = errors.New("not found")
	ErrVotePending = errors.New("vote has not been mined")
)

// Receipt proves a vote is part of a block on the chain.
type Receipt struct {
	VoterID     string   `json:"voter_id"`
	Candidate   string   `json:"candidate"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	MerkleRoot  string   `json:"merkle_root"`
	LeafHash    string   `json:"leaf_hash"`
	Proof       []string `json:"proof"`
	ProofOrder  []int64  `json:"proof_order"`
}

// Verify checks the proof in the receipt leads from the leaf to the root.
func (r Receipt) Verify() error {
	leaf, err := hexutil.Decode(r.LeafHash)
	if err != nil {
		return fmt.Errorf("decoding leaf: %w", err)
	}

	root, err := hexutil.Decode(r.MerkleRoot)
	if err != nil {
		return fmt.Errorf("decoding root: %w", err)
	}

	proof := make([][]byte, len(r.Proof))
	for i, p := range r.Proof {
		if proof[i], err = hexutil.Decode(p); err != nil {
			return fmt.Errorf("decoding proof[%d]: %w", i, err)
		}
	}

	if !merkle.VerifyProof(leaf, proof, r.ProofOrder, root) {
		return errors.New("proof does not lead to the merkle root")
	}

	return nil
}

// CandidateTally is the number of votes a candidate holds on the chain.
type CandidateTally struct {
	Candidate string `json:"candidate"`
	Votes     int    `json:"votes"`
}

// =============================================================================

// QueryBlock returns the exported form of the specified block.
func (s *State) QueryBlock(number uint64) (database.BlockData, error) {
	blk, exists := s.chain.Block(number)
	if !exists {
		return database.BlockData{}, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}

	return database.NewBlockData(blk), nil
}

// QueryVoteReceipt locates the block holding the voter's vote and builds
// a merkle proof for it.
func (s *State) QueryVoteReceipt(voterID string) (Receipt, error) {
	blocks := s.chain.Blocks()

	for _, blk := range blocks[1:] {
		for i, vote := range blk.Votes {
			if vote.VoterID != voterID {
				continue
			}

			tree, err := merkle.NewTree(blk.Votes)
			if err != nil {
				return Receipt{}, err
			}

			proof, order, err := tree.Proof(i)
			if err != nil {
				return Receipt{}, err
			}

			leaf, err := vote.Hash()
			if err != nil {
				return Receipt{}, err
			}

			hexProof := make([]string, len(proof))
			for j, p := range proof {
				hexProof[j] = hexutil.Encode(p)
			}

			r := Receipt{
				VoterID:     vote.VoterID,
				Candidate:   vote.Candidate,
				BlockNumber: blk.Header.Number,
				BlockHash:   blk.Hash(),
				MerkleRoot:  tree.RootHex(),
				LeafHash:    hexutil.Encode(leaf),
				Proof:       hexProof,
				ProofOrder:  order,
			}

			return r, nil
		}
	}

	if s.mempool.HasVoted(voterID) {
		return Receipt{}, fmt.Errorf("voter %s: %w", voterID, ErrVotePending)
	}

	return Receipt{}, fmt.Errorf("voter %s: %w", voterID, ErrNotFound)
}

// Tally counts the votes per candidate on the chain. Candidates on the
// genesis ballot are listed even with no votes. The result is ordered by
// votes, then by candidate.
func (s *State) Tally() []CandidateTally {
	counts := make(map[string]int)
	for _, c := range s.genesis.Candidates {
		counts[c] = 0
	}

	blocks := s.chain.Blocks()
	for _, blk := range blocks[1:] {
		for _, vote := range blk.Votes {
			counts[vote.Candidate]++
		}
	}

	tally := make([]CandidateTally, 0, len(counts))
	for candidate, votes := range counts {
		tally = append(tally, CandidateTally{Candidate: candidate, Votes: votes})
	}

	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Votes != tally[j].Votes {
			return tally[i].Votes > tally[j].Votes
		}
		return tally[i].Candidate < tally[j].Candidate
	})

	return tally
}
