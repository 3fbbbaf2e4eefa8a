package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/genesis"
	"github.com/ardanlabs/votechain/foundation/blockchain/signature"
)

func mineNext(t *testing.T, chain *database.Chain, voterID string, candidate string, difficulty uint) database.Block {
	blk, err := database.POW(context.Background(), chain.Latest(), []database.Vote{vote(t, voterID, candidate)}, difficulty, now, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine block for %s: %v", failed, voterID, err)
	}
	return blk
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to construct the genesis block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen building genesis twice from the same information.", testID)
		{
			g1 := database.Genesis(genesis.Default())
			g2 := database.Genesis(genesis.Default())

			if g1.Hash() != g2.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)

			if g1.Header.Number != 0 || g1.Header.PrevBlockHash != signature.ZeroHash {
				t.Fatalf("\t%s\tTest %d:\tShould have number 0 and the zero parent hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have number 0 and the zero parent hash.", success, testID)

			if len(g1.Votes) != 1 || g1.Votes[0].VoterID != database.GenesisVoter {
				t.Fatalf("\t%s\tTest %d:\tShould carry the placeholder vote.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould carry the placeholder vote.", success, testID)
		}
	}
}

func Test_ChainAppend(t *testing.T) {
	t.Log("Given the need to append blocks to the chain.")
	{
		chain := database.NewChain(genesis.Default())
		gen := chain.Latest()

		testID := 0
		t.Logf("\tTest %d:\tWhen appending properly linked blocks.", testID)
		{
			for _, voter := range []string{"alice", "bob", "carol"} {
				if err := chain.Append(mineNext(t, chain, voter, "X", 1)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to append block for %s: %v", failed, testID, voter, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to append blocks.", success, testID)

			if chain.Length() != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould have 4 blocks, got %d.", failed, testID, chain.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould have 4 blocks.", success, testID)

			blocks := chain.Blocks()
			for i := 1; i < len(blocks); i++ {
				if blocks[i].Header.PrevBlockHash != blocks[i-1].Hash() || blocks[i].Header.Number != uint64(i) {
					t.Fatalf("\t%s\tTest %d:\tShould link block %d to its parent.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould link every block to its parent.", success, testID)

			if blocks[0].Hash() != gen.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould keep the genesis block unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the genesis block unchanged.", success, testID)

			if report := chain.Validate(); !report.OK {
				t.Fatalf("\t%s\tTest %d:\tShould validate: %v", failed, testID, report.Err())
			}
			t.Logf("\t%s\tTest %d:\tShould validate.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen appending blocks that do not link.", testID)
		{
			stale, err := database.POW(context.Background(), gen, []database.Vote{vote(t, "dave", "X")}, 1, now, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the stale block: %v", failed, testID, err)
			}

			if err := chain.Append(stale); !errors.Is(err, database.ErrLinkageViolation) {
				t.Fatalf("\t%s\tTest %d:\tShould get a linkage violation for a wrong number, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a linkage violation for a wrong number.", success, testID)

			forged := database.NewBlock(chain.Latest().Header.Number+1, uint64(now.UnixMilli()), []database.Vote{vote(t, "dave", "X")}, gen.Hash())
			if err := chain.Append(forged); !errors.Is(err, database.ErrLinkageViolation) {
				t.Fatalf("\t%s\tTest %d:\tShould get a linkage violation for a wrong parent, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a linkage violation for a wrong parent.", success, testID)

			if chain.Length() != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged, got %d blocks.", failed, testID, chain.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen appending a block with an unsolved hash.", testID)
		{
			unsolved := database.NewBlock(chain.Latest().Header.Number+1, uint64(now.UnixMilli()), []database.Vote{vote(t, "dave", "X")}, chain.Latest().Hash())
			unsolved.Header.Difficulty = signature.MaxDifficulty

			if err := chain.Append(unsolved); !errors.Is(err, database.ErrInvalidBlock) {
				t.Fatalf("\t%s\tTest %d:\tShould get an invalid block error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an invalid block error.", success, testID)
		}
	}
}

func Test_ChainCopies(t *testing.T) {
	t.Log("Given the need to hand out copies of the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a caller mutates a returned block.", testID)
		{
			chain := database.NewChain(genesis.Default())
			if err := chain.Append(mineNext(t, chain, "alice", "X", 1)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append: %v", failed, testID, err)
			}

			blocks := chain.Blocks()
			blocks[1].Votes[0].Candidate = "Y"

			blk, _ := chain.Block(1)
			blk.Votes[0].Candidate = "Z"

			if report := chain.Validate(); !report.OK {
				t.Fatalf("\t%s\tTest %d:\tShould not affect the chain: %v", failed, testID, report.Err())
			}
			t.Logf("\t%s\tTest %d:\tShould not affect the chain.", success, testID)

			if _, exists := chain.Block(9); exists {
				t.Fatalf("\t%s\tTest %d:\tShould not find a block past the tail.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not find a block past the tail.", success, testID)
		}
	}
}

func Test_ValidateExported(t *testing.T) {
	type table struct {
		name   string
		tamper func(bds []database.BlockData)
		index  uint64
		kind   database.ViolationKind
	}

	tt := []table{
		{
			name:   "candidate",
			tamper: func(bds []database.BlockData) { bds[2].Votes[0].Candidate = "Y" },
			index:  2,
			kind:   database.ViolationHashMismatch,
		},
		{
			name:   "voter",
			tamper: func(bds []database.BlockData) { bds[1].Votes[0].VoterID = "mallory" },
			index:  1,
			kind:   database.ViolationHashMismatch,
		},
		{
			name:   "parent",
			tamper: func(bds []database.BlockData) { bds[3].PrevBlockHash = bds[1].Hash },
			index:  3,
			kind:   database.ViolationHashMismatch,
		},
		{
			name:   "genesis",
			tamper: func(bds []database.BlockData) { bds[0].Votes[0].Candidate = "X" },
			index:  0,
			kind:   database.ViolationHashMismatch,
		},
		{
			name:   "difficulty",
			tamper: func(bds []database.BlockData) { bds[2].Difficulty = signature.MaxDifficulty },
			index:  2,
			kind:   database.ViolationProofOfWork,
		},
		{
			name: "rehashed",
			tamper: func(bds []database.BlockData) {
				bds[1].Votes[0].Candidate = "Y"
				blk, _ := database.ToBlock(bds[1])
				bds[1].Hash = blk.ComputeHash()
			},
			index: 2,
			kind:  database.ViolationLinkBroken,
		},
		{
			name:   "number",
			tamper: func(bds []database.BlockData) { bds[0].Number = 5 },
			index:  0,
			kind:   database.ViolationHashMismatch,
		},
	}

	t.Log("Given the need to detect tampering in an exported chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				// Block 1 is mined at difficulty 0 so a re-hashed block 1
				// still solves its puzzle.
				chain := database.NewChain(genesis.Default())
				for i, voter := range []string{"alice", "bob", "carol"} {
					difficulty := uint(3)
					if i == 0 {
						difficulty = 0
					}
					if err := chain.Append(mineNext(t, chain, voter, "X", difficulty)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to append: %v", failed, testID, err)
					}
				}

				blocks := chain.Blocks()
				bds := make([]database.BlockData, len(blocks))
				for i, blk := range blocks {
					bds[i] = database.NewBlockData(blk)
				}

				tst.tamper(bds)

				rebuilt := make([]database.Block, len(bds))
				for i, bd := range bds {
					blk, err := database.ToBlock(bd)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to rebuild block %d: %v", failed, testID, i, err)
					}
					rebuilt[i] = blk
				}

				report := database.ValidateBlocks(rebuilt)
				if report.OK {
					t.Fatalf("\t%s\tTest %d:\tShould detect the tampering.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould detect the tampering.", success, testID)

				if report.Index == nil || *report.Index != tst.index || report.Kind != tst.kind {
					t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, report)
					t.Fatalf("\t%s\tTest %d:\tShould report %s at block %d.", failed, testID, tst.kind, tst.index)
				}
				t.Logf("\t%s\tTest %d:\tShould report %s at block %d.", success, testID, tst.kind, tst.index)

				if prefix := database.ValidateBlocks(rebuilt[:tst.index]); tst.index > 0 && !prefix.OK {
					t.Fatalf("\t%s\tTest %d:\tShould validate the blocks before the violation: %v", failed, testID, prefix.Err())
				}
			}

			t.Run(tst.name, f)
		}
	}
}
