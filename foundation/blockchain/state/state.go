// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/genesis"
	"github.com/ardanlabs/votechain/foundation/blockchain/mempool"
	"github.com/ardanlabs/votechain/foundation/blockchain/signature"
)

// DefaultMaxDifficulty bounds mining when a config does not set one. Every
// extra unit of difficulty multiplies the expected mining work by 16.
const DefaultMaxDifficulty = 6

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of votes and blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis       genesis.Genesis
	MaxDifficulty uint
	MineTimeout   time.Duration
	EvHandler     EventHandler
	Now           func() time.Time
}

// State manages the ledger. It owns the chain and the mempool, and is the
// only value allowed to write to either.
type State struct {
	mu sync.Mutex

	genesis       genesis.Genesis
	maxDifficulty uint
	mineTimeout   time.Duration
	evHandler     EventHandler
	now           func() time.Time

	mempool *mempool.Mempool
	chain   *database.Chain
}

// New constructs a new ledger holding only the genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	maxDifficulty := cfg.MaxDifficulty
	if maxDifficulty == 0 {
		maxDifficulty = DefaultMaxDifficulty
	}
	if maxDifficulty > signature.MaxDifficulty {
		return nil, fmt.Errorf("max difficulty %d exceeds hash length %d", maxDifficulty, signature.MaxDifficulty)
	}
	if cfg.Genesis.Difficulty > maxDifficulty {
		return nil, fmt.Errorf("genesis difficulty %d exceeds max difficulty %d", cfg.Genesis.Difficulty, maxDifficulty)
	}

	chain := database.NewChain(cfg.Genesis)

	state := State{
		genesis:       cfg.Genesis,
		maxDifficulty: maxDifficulty,
		mineTimeout:   cfg.MineTimeout,
		evHandler:     ev,
		now:           now,

		mempool: mempool.NewWithBallot(cfg.Genesis.OnBallot),
		chain:   chain,
	}

	ev("state: New: genesis: blk[%s]: candidates[%d]", chain.Latest().Hash(), len(cfg.Genesis.Candidates))

	return &state, nil
}

// MaxDifficulty returns the highest difficulty this ledger will mine at.
func (s *State) MaxDifficulty() uint {
	return s.maxDifficulty
}
