// Package database handles the lower level support for maintaining the
// blockchain in memory: votes, blocks and the chain itself.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/votechain/foundation/blockchain/genesis"
	"github.com/ardanlabs/votechain/foundation/blockchain/signature"
)

// ErrLinkageViolation is returned from Append when a block is not the next
// block for the current tail of the chain.
var ErrLinkageViolation = errors.New("block does not link to the chain tail")

// GenesisVoter is the voter id on the placeholder vote in the genesis block.
const GenesisVoter = "genesis"

// =============================================================================

// ViolationKind names the integrity rule a block failed during validation.
type ViolationKind string

// Set of violations reported by Validate.
const (
	ViolationHashMismatch  ViolationKind = "hash_mismatch"
	ViolationLinkBroken    ViolationKind = "link_broken"
	ViolationIndexMismatch ViolationKind = "index_mismatch"
	ViolationProofOfWork   ViolationKind = "proof_of_work"
)

// ValidationReport is the result of validating the full chain.
type ValidationReport struct {
	OK     bool          `json:"ok"`
	Index  *uint64       `json:"first_violation_index,omitempty"`
	Kind   ViolationKind `json:"kind,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// Err returns nil when the report is ok, otherwise an error describing the
// first violation.
func (vr ValidationReport) Err() error {
	if vr.OK {
		return nil
	}

	var idx uint64
	if vr.Index != nil {
		idx = *vr.Index
	}

	return fmt.Errorf("chain invalid: blk[%d]: %s: %s", idx, vr.Kind, vr.Detail)
}

func violation(index uint64, kind ViolationKind, format string, args ...any) ValidationReport {
	return ValidationReport{
		Index:  &index,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// =============================================================================

// Genesis constructs the first block of the chain from the genesis
// information. The same genesis always produces the same block.
func Genesis(gen genesis.Genesis) Block {
	ts := uint64(gen.Date.UTC().UnixMilli())

	vote := Vote{
		VoterID:   GenesisVoter,
		Candidate: GenesisVoter,
		TimeStamp: ts,
	}

	return NewBlock(0, ts, []Vote{vote}, signature.ZeroHash)
}

// Chain maintains the ordered set of blocks starting with the genesis block.
// The difficulty each block was accepted at is kept apart from the block,
// since the header difficulty is not covered by the block hash.
type Chain struct {
	mu     sync.RWMutex
	blocks []Block
	mined  []uint
}

// NewChain constructs a chain holding only the genesis block.
func NewChain(gen genesis.Genesis) *Chain {
	return &Chain{
		blocks: []Block{Genesis(gen)},
		mined:  []uint{0},
	}
}

// Append adds the block to the end of the chain. The block must be the next
// number, link to the current tail and carry a solved hash that matches its
// content. On failure the chain is left unchanged.
func (c *Chain) Append(block Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	latest := c.blocks[len(c.blocks)-1]

	if nextNumber := latest.Header.Number + 1; block.Header.Number != nextNumber {
		return fmt.Errorf("%w: got number %d, exp %d", ErrLinkageViolation, block.Header.Number, nextNumber)
	}

	if block.Header.PrevBlockHash != latest.Hash() {
		return fmt.Errorf("%w: got parent %s, exp %s", ErrLinkageViolation, block.Header.PrevBlockHash, latest.Hash())
	}

	if hash := block.ComputeHash(); hash != block.Hash() {
		return fmt.Errorf("%w: stored hash %s, computed %s", ErrInvalidBlock, block.Hash(), hash)
	}

	if !signature.IsHashSolved(block.Header.Difficulty, block.Hash()) {
		return fmt.Errorf("%w: hash %s not solved for difficulty %d", ErrInvalidBlock, block.Hash(), block.Header.Difficulty)
	}

	c.blocks = append(c.blocks, block.clone())
	c.mined = append(c.mined, block.Header.Difficulty)

	return nil
}

// Latest returns the last block in the chain.
func (c *Chain) Latest() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[len(c.blocks)-1].clone()
}

// Length returns the number of blocks including genesis.
func (c *Chain) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Block returns the block for the specified number.
func (c *Chain) Block(number uint64) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if number >= uint64(len(c.blocks)) {
		return Block{}, false
	}

	return c.blocks[number].clone(), true
}

// Blocks returns a copy of every block in the chain.
func (c *Chain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cpy := make([]Block, len(c.blocks))
	for i, b := range c.blocks {
		cpy[i] = b.clone()
	}

	return cpy
}

// Validate walks the full chain and reports the first block that breaks
// an integrity rule. The proof of work is checked against the difficulty
// each block was appended at, so a lowered header difficulty is reported.
// It never modifies the chain.
func (c *Chain) Validate() ValidationReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return validateBlocks(c.blocks, c.mined)
}

// ValidateBlocks runs the chain integrity rules over a set of blocks, such
// as an exported chain converted with ToBlock. With no record of how the
// blocks were mined, the proof of work can only be checked against the
// difficulty each block header carries.
func ValidateBlocks(blocks []Block) ValidationReport {
	return validateBlocks(blocks, nil)
}

// validateBlocks checks the blocks in order. When mined is not nil it holds
// the accepted difficulty for every block.
func validateBlocks(blocks []Block, mined []uint) ValidationReport {
	if len(blocks) == 0 {
		return violation(0, ViolationIndexMismatch, "chain has no genesis block")
	}

	gen := blocks[0]
	if hash := gen.ComputeHash(); hash != gen.Hash() {
		return violation(0, ViolationHashMismatch, "stored %s, computed %s", gen.Hash(), hash)
	}
	if gen.Header.PrevBlockHash != signature.ZeroHash {
		return violation(0, ViolationLinkBroken, "genesis parent %s, exp %s", gen.Header.PrevBlockHash, signature.ZeroHash)
	}
	if gen.Header.Number != 0 {
		return violation(0, ViolationIndexMismatch, "genesis number %d", gen.Header.Number)
	}

	for i := 1; i < len(blocks); i++ {
		idx := uint64(i)
		blk := blocks[i]
		prev := blocks[i-1]

		if hash := blk.ComputeHash(); hash != blk.Hash() {
			return violation(idx, ViolationHashMismatch, "stored %s, computed %s", blk.Hash(), hash)
		}

		if blk.Header.PrevBlockHash != prev.Hash() {
			return violation(idx, ViolationLinkBroken, "parent %s, exp %s", blk.Header.PrevBlockHash, prev.Hash())
		}

		if blk.Header.Number != idx {
			return violation(idx, ViolationIndexMismatch, "number %d, exp %d", blk.Header.Number, idx)
		}

		if mined != nil && blk.Header.Difficulty != mined[i] {
			return violation(idx, ViolationProofOfWork, "difficulty %d, mined at %d", blk.Header.Difficulty, mined[i])
		}

		if !signature.IsHashSolved(blk.Header.Difficulty, blk.Hash()) {
			return violation(idx, ViolationProofOfWork, "hash %s not solved for difficulty %d", blk.Hash(), blk.Header.Difficulty)
		}
	}

	return ValidationReport{OK: true}
}
