package mempool_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func vote(voterID string, candidate string) database.Vote {
	return database.Vote{
		VoterID:   voterID,
		Candidate: candidate,
		TimeStamp: uint64(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}
}

// =============================================================================

func TestAdmit(t *testing.T) {
	type table struct {
		name  string
		votes []database.Vote
		errs  []error
		pend  []string
	}

	tt := []table{
		{
			name:  "basic",
			votes: []database.Vote{vote("alice", "X"), vote("bob", "Y"), vote("carol", "X")},
			errs:  []error{nil, nil, nil},
			pend:  []string{"alice", "bob", "carol"},
		},
		{
			name:  "duplicate",
			votes: []database.Vote{vote("alice", "X"), vote("alice", "Y")},
			errs:  []error{nil, mempool.ErrAlreadyVoted},
			pend:  []string{"alice"},
		},
		{
			name:  "repeat malformed",
			votes: []database.Vote{vote("alice", "X"), vote("alice", ""), vote("alice", " Y")},
			errs:  []error{nil, mempool.ErrAlreadyVoted, mempool.ErrAlreadyVoted},
			pend:  []string{"alice"},
		},
		{
			name:  "invalid",
			votes: []database.Vote{vote("alice", ""), vote("alice", "X")},
			errs:  []error{database.ErrInvalidTransaction, nil},
			pend:  []string{"alice"},
		},
	}

	t.Log("Given the need to admit votes into the mempool.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of votes.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for i, v := range tst.votes {
						err := mp.Admit(v)
						if !errors.Is(err, tst.errs[i]) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.errs[i])
							t.Fatalf("\t%s\tTest %d:\tShould get the right result for vote %s.", failed, testID, v)
						}
						t.Logf("\t%s\tTest %d:\tShould get the right result for vote %s.", success, testID, v)
					}

					pending := mp.Copy()
					if len(pending) != len(tst.pend) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d pending votes, got %d.", failed, testID, len(tst.pend), len(pending))
					}
					for i, v := range pending {
						if v.VoterID != tst.pend[i] {
							t.Fatalf("\t%s\tTest %d:\tShould keep admission order, got %s at %d.", failed, testID, v.VoterID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep the pending votes in admission order.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestDrain(t *testing.T) {
	t.Log("Given the need to drain the mempool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen draining after admitting votes.", testID)
		{
			mp := mempool.New()
			mp.Admit(vote("alice", "X"))
			mp.Admit(vote("bob", "Y"))

			votes := mp.Drain()
			if len(votes) != 2 || mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould drain all votes, got %d left %d.", failed, testID, len(votes), mp.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould drain all votes.", success, testID)

			if err := mp.Admit(vote("alice", "Z")); !errors.Is(err, mempool.ErrAlreadyVoted) {
				t.Fatalf("\t%s\tTest %d:\tShould remember voters after a drain, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould remember voters after a drain.", success, testID)

			mp.Admit(vote("carol", "X"))
			mp.Restore(votes)

			pending := mp.Copy()
			if len(pending) != 3 || pending[0].VoterID != "alice" || pending[2].VoterID != "carol" {
				t.Fatalf("\t%s\tTest %d:\tShould restore drained votes ahead of new ones: %v", failed, testID, pending)
			}
			t.Logf("\t%s\tTest %d:\tShould restore drained votes ahead of new ones.", success, testID)

			mp.Restore([]database.Vote{vote("mallory", "X")})
			if mp.Count() != 3 || mp.HasVoted("mallory") {
				t.Fatalf("\t%s\tTest %d:\tShould not restore voters never admitted.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not restore voters never admitted.", success, testID)

			voters := mp.Voters()
			if fmt.Sprint(voters) != "[alice bob carol]" {
				t.Fatalf("\t%s\tTest %d:\tShould list the voters sorted, got %v.", failed, testID, voters)
			}
			t.Logf("\t%s\tTest %d:\tShould list the voters sorted.", success, testID)
		}
	}
}

func TestTake(t *testing.T) {
	t.Log("Given the need to take a single vote out of the mempool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen other votes are pending.", testID)
		{
			mp := mempool.New()
			mp.Admit(vote("alice", "X"))
			mp.Admit(vote("bob", "Y"))
			mp.Admit(vote("carol", "X"))

			v, exists := mp.Take("bob")
			if !exists || v.VoterID != "bob" || v.Candidate != "Y" {
				t.Fatalf("\t%s\tTest %d:\tShould take bob's vote, got %v %v.", failed, testID, v, exists)
			}
			t.Logf("\t%s\tTest %d:\tShould take bob's vote.", success, testID)

			pending := mp.Copy()
			if len(pending) != 2 || pending[0].VoterID != "alice" || pending[1].VoterID != "carol" {
				t.Fatalf("\t%s\tTest %d:\tShould leave the other votes in order: %v", failed, testID, pending)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the other votes in order.", success, testID)

			if _, exists := mp.Take("bob"); exists {
				t.Fatalf("\t%s\tTest %d:\tShould not take the same vote twice.", failed, testID)
			}
			if !mp.HasVoted("bob") {
				t.Fatalf("\t%s\tTest %d:\tShould still remember bob as a voter.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remember bob as a voter.", success, testID)
		}
	}
}

func TestBallot(t *testing.T) {
	t.Log("Given the need to restrict votes to a ballot.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a candidate is not on the ballot.", testID)
		{
			mp := mempool.NewWithBallot(func(c string) bool { return c == "X" })

			if err := mp.Admit(vote("alice", "Y")); !errors.Is(err, database.ErrInvalidTransaction) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse the vote, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse the vote.", success, testID)

			if mp.HasVoted("alice") {
				t.Fatalf("\t%s\tTest %d:\tShould not mark the voter as seen.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not mark the voter as seen.", success, testID)

			if err := mp.Admit(vote("alice", "X")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a vote on the ballot: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a vote on the ballot.", success, testID)
		}
	}
}

func TestAdmitConcurrent(t *testing.T) {
	t.Log("Given the need to admit the same voter from many goroutines.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen 50 goroutines submit for one voter.", testID)
		{
			mp := mempool.New()

			const goroutines = 50
			var wg sync.WaitGroup
			var mu sync.Mutex
			var admitted int

			wg.Add(goroutines)
			for i := 0; i < goroutines; i++ {
				go func(i int) {
					defer wg.Done()
					if err := mp.Admit(vote("alice", fmt.Sprintf("C%d", i))); err == nil {
						mu.Lock()
						admitted++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			if admitted != 1 || mp.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould admit exactly one vote, got %d.", failed, testID, admitted)
			}
			t.Logf("\t%s\tTest %d:\tShould admit exactly one vote.", success, testID)
		}
	}
}
