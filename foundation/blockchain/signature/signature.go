// Package signature provides helper functions for handling the blockchain
// hashing needs.
package signature

import (
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is used as the parent hash
// of the genesis block.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// MaxDifficulty is the number of hex digits in a hash. A difficulty greater
// than this can never be solved.
const MaxDifficulty = 64

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to JSON
// so struct field order defines the canonical byte layout being hashed.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// HashBytes returns the raw sha256 of the JSON encoding of the value.
func HashBytes(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's in the hex digits that follow
// the 0x prefix.
func IsHashSolved(difficulty uint, hash string) bool {
	hash = strings.TrimPrefix(hash, "0x")

	if len(hash) != MaxDifficulty || difficulty > MaxDifficulty {
		return false
	}

	for _, c := range hash[:difficulty] {
		if c != '0' {
			return false
		}
	}

	return true
}

// LeadingZeros returns the number of leading 0 hex digits in the hash.
func LeadingZeros(hash string) uint {
	hash = strings.TrimPrefix(hash, "0x")

	var n uint
	for _, c := range hash {
		if c != '0' {
			break
		}
		n++
	}

	return n
}
