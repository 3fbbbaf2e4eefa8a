package database

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ardanlabs/votechain/foundation/blockchain/signature"
)

// ErrInvalidTransaction is returned when a vote is malformed.
var ErrInvalidTransaction = errors.New("invalid transaction")

// MaxFieldLength is the longest voter id or candidate accepted, in runes.
const MaxFieldLength = 128

// =============================================================================

// Vote is the transactional information recorded on the ledger. A voter
// may only ever cast a single vote.
type Vote struct {
	VoterID   string `json:"voter_id"`  // Unique id for the voter across the life of the ledger.
	Candidate string `json:"candidate"` // The candidate receiving the vote.
	TimeStamp uint64 `json:"timestamp"` // Unix milliseconds when the vote was received.
}

// NewVote constructs a new vote stamped with the specified time.
func NewVote(voterID string, candidate string, now time.Time) (Vote, error) {
	v := Vote{
		VoterID:   voterID,
		Candidate: candidate,
		TimeStamp: uint64(now.UTC().UnixMilli()),
	}

	if err := v.Validate(); err != nil {
		return Vote{}, err
	}

	return v, nil
}

// Validate checks the vote is well formed.
func (v Vote) Validate() error {
	if err := checkField("voter id", v.VoterID); err != nil {
		return err
	}

	if err := checkField("candidate", v.Candidate); err != nil {
		return err
	}

	return nil
}

// Hash implements the merkle Hashable interface for providing a hash
// of a vote.
func (v Vote) Hash() ([]byte, error) {
	return signature.HashBytes(v)
}

// Time returns the timestamp as a time value.
func (v Vote) Time() time.Time {
	return time.UnixMilli(int64(v.TimeStamp)).UTC()
}

// String implements the fmt.Stringer interface for logging.
func (v Vote) String() string {
	return fmt.Sprintf("%s:%s", v.VoterID, v.Candidate)
}

// =============================================================================

func checkField(name string, value string) error {
	switch {
	case value == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidTransaction, name)

	case strings.TrimSpace(value) != value:
		return fmt.Errorf("%w: %s has leading or trailing space", ErrInvalidTransaction, name)

	case !utf8.ValidString(value):
		return fmt.Errorf("%w: %s is not valid utf8", ErrInvalidTransaction, name)

	case utf8.RuneCountInString(value) > MaxFieldLength:
		return fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidTransaction, name, MaxFieldLength)
	}

	for _, r := range value {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("%w: %s contains unprintable characters", ErrInvalidTransaction, name)
		}
	}

	return nil
}
