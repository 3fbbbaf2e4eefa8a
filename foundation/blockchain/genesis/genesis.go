// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`
	ChainID    uint16    `json:"chain_id"`   // The chain id represents an unique id for this running instance.
	Difficulty uint      `json:"difficulty"` // Default number of leading 0's needed to solve the work problem.
	Candidates []string  `json:"candidates"` // The ballot. When empty any non-empty candidate is accepted.
}

// Default returns the genesis used when no genesis file is configured.
func Default() Genesis {
	return Genesis{
		Date:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:    1,
		Difficulty: 3,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if genesis.Date.IsZero() {
		genesis.Date = Default().Date
	}

	seen := make(map[string]struct{}, len(genesis.Candidates))
	for _, c := range genesis.Candidates {
		if c == "" {
			return Genesis{}, fmt.Errorf("genesis: empty candidate on ballot")
		}
		if _, exists := seen[c]; exists {
			return Genesis{}, fmt.Errorf("genesis: duplicate candidate %q", c)
		}
		seen[c] = struct{}{}
	}

	return genesis, nil
}

// OnBallot reports whether the candidate is allowed by this genesis.
func (g Genesis) OnBallot(candidate string) bool {
	if len(g.Candidates) == 0 {
		return true
	}

	for _, c := range g.Candidates {
		if c == candidate {
			return true
		}
	}

	return false
}
