package votegrp

import "github.com/ardanlabs/votechain/foundation/blockchain/state"

type newVote struct {
	VoterID    string `json:"voter_id"`
	Candidate  string `json:"candidate"`
	Difficulty *uint  `json:"difficulty" validate:"omitempty,max=64"`
}

type mineRequest struct {
	Difficulty *uint `json:"difficulty" validate:"omitempty,max=64"`
}

type vote struct {
	VoterID   string `json:"voter_id"`
	Candidate string `json:"candidate"`
	TimeStamp string `json:"timestamp"`
}

type blockResult struct {
	Status string             `json:"status"`
	Block  state.BlockSummary `json:"block"`
}

type pending struct {
	Count int    `json:"count"`
	Votes []vote `json:"votes"`
}
