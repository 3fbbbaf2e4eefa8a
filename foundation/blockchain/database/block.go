package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/votechain/foundation/blockchain/signature"
)

// ErrInvalidBlock is returned when a block's stored hash does not match its
// content or does not solve the block's difficulty.
var ErrInvalidBlock = errors.New("invalid block")

// TimeFormat is the text form of block and vote timestamps. Millisecond
// precision is kept so an exported block can be re-hashed exactly.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Bitcoin: Block number in the chain.
	PrevBlockHash string `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`       // Bitcoin: Unix milliseconds the block was built.
	Nonce         uint64 `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`      // Ethereum: Number of 0's needed to solve the hash solution.
}

// Block represents a group of votes batched together.
type Block struct {
	Header BlockHeader
	Votes  []Vote
	hash   string
}

// hashContent is the canonical field tuple a block hash is computed over.
// The field order here is the serialization order.
type hashContent struct {
	Number        uint64 `json:"number"`
	TimeStamp     uint64 `json:"timestamp"`
	Votes         []Vote `json:"votes"`
	PrevBlockHash string `json:"prev_block_hash"`
	Nonce         uint64 `json:"nonce"`
}

// NewBlock constructs a block with a zero nonce and its hash computed.
func NewBlock(number uint64, timeStamp uint64, votes []Vote, prevBlockHash string) Block {
	b := Block{
		Header: BlockHeader{
			Number:        number,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     timeStamp,
		},
		Votes: copyVotes(votes),
	}
	b.hash = b.ComputeHash()

	return b
}

// POW constructs a new block on top of the previous block and performs the
// work to find a nonce that solves the cryptographic POW puzzle.
func POW(ctx context.Context, prevBlock Block, votes []Vote, difficulty uint, now time.Time, evHandler func(v string, args ...any)) (Block, error) {
	nb := NewBlock(prevBlock.Header.Number+1, uint64(now.UTC().UnixMilli()), votes, prevBlock.Hash())

	if err := nb.Mine(ctx, difficulty, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// Mine does the work of finding a nonce that produces a hash with at least
// difficulty leading zeros. Pointer semantics are being used since a nonce
// is being discovered. The search starts at nonce 0 and only stops early if
// the context is cancelled.
func (b *Block) Mine(ctx context.Context, difficulty uint, evHandler func(v string, args ...any)) error {
	ev := safeEv(evHandler)

	if difficulty > signature.MaxDifficulty {
		return fmt.Errorf("difficulty %d exceeds hash length %d", difficulty, signature.MaxDifficulty)
	}

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", b.Header.Number, difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Header.Number)

	for _, vote := range b.Votes {
		ev("database: Mine: MINING: vote[%s]", vote)
	}

	b.Header.Difficulty = difficulty
	b.Header.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
			return err
		}

		hash := b.ComputeHash()
		if !signature.IsHashSolved(difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		b.hash = hash

		ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: Mine: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the stored hash for the block.
func (b Block) Hash() string {
	return b.hash
}

// ComputeHash recomputes the hash from the block content. It never looks
// at the stored hash, so comparing the two detects tampering.
func (b Block) ComputeHash() string {
	votes := b.Votes
	if votes == nil {
		votes = []Vote{}
	}

	return signature.Hash(hashContent{
		Number:        b.Header.Number,
		TimeStamp:     b.Header.TimeStamp,
		Votes:         votes,
		PrevBlockHash: b.Header.PrevBlockHash,
		Nonce:         b.Header.Nonce,
	})
}

// Time returns the block timestamp as a time value.
func (b Block) Time() time.Time {
	return time.UnixMilli(int64(b.Header.TimeStamp)).UTC()
}

// clone returns a copy of the block that shares no memory with the original.
func (b Block) clone() Block {
	b.Votes = copyVotes(b.Votes)
	return b
}

// =============================================================================

// VoteData is the exported form of a vote.
type VoteData struct {
	VoterID   string `json:"voter_id"`
	Candidate string `json:"candidate"`
	TimeStamp string `json:"timestamp"`
}

// BlockData is the exported form of a block with text timestamps. It holds
// everything needed to rebuild the block and re-check its hash.
type BlockData struct {
	Number        uint64     `json:"number"`
	TimeStamp     string     `json:"timestamp"`
	PrevBlockHash string     `json:"prev_block_hash"`
	Nonce         uint64     `json:"nonce"`
	Difficulty    uint       `json:"difficulty"`
	Hash          string     `json:"hash"`
	Votes         []VoteData `json:"votes"`
}

// NewBlockData constructs the value to export.
func NewBlockData(block Block) BlockData {
	votes := make([]VoteData, len(block.Votes))
	for i, v := range block.Votes {
		votes[i] = VoteData{
			VoterID:   v.VoterID,
			Candidate: v.Candidate,
			TimeStamp: v.Time().Format(TimeFormat),
		}
	}

	return BlockData{
		Number:        block.Header.Number,
		TimeStamp:     block.Time().Format(TimeFormat),
		PrevBlockHash: block.Header.PrevBlockHash,
		Nonce:         block.Header.Nonce,
		Difficulty:    block.Header.Difficulty,
		Hash:          block.Hash(),
		Votes:         votes,
	}
}

// ToBlock converts a BlockData into a Block. The stored hash is taken from
// the data as is, so the result can be checked with ComputeHash.
func ToBlock(bd BlockData) (Block, error) {
	blkTime, err := time.Parse(TimeFormat, bd.TimeStamp)
	if err != nil {
		return Block{}, fmt.Errorf("parsing block timestamp: %w", err)
	}

	votes := make([]Vote, len(bd.Votes))
	for i, vd := range bd.Votes {
		voteTime, err := time.Parse(TimeFormat, vd.TimeStamp)
		if err != nil {
			return Block{}, fmt.Errorf("parsing vote[%d] timestamp: %w", i, err)
		}

		votes[i] = Vote{
			VoterID:   vd.VoterID,
			Candidate: vd.Candidate,
			TimeStamp: uint64(voteTime.UnixMilli()),
		}
	}

	b := Block{
		Header: BlockHeader{
			Number:        bd.Number,
			PrevBlockHash: bd.PrevBlockHash,
			TimeStamp:     uint64(blkTime.UnixMilli()),
			Nonce:         bd.Nonce,
			Difficulty:    bd.Difficulty,
		},
		Votes: votes,
		hash:  bd.Hash,
	}

	return b, nil
}

// =============================================================================

func copyVotes(votes []Vote) []Vote {
	cpy := make([]Vote, len(votes))
	copy(cpy, votes)
	return cpy
}

func safeEv(evHandler func(v string, args ...any)) func(v string, args ...any) {
	if evHandler == nil {
		return func(string, ...any) {}
	}
	return evHandler
}
