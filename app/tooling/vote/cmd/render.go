package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/state"
	"github.com/pterm/pterm"
)

func renderSummary(bs state.BlockSummary) {
	info := pterm.Sprintfln("number: %d", bs.Number) +
		pterm.Sprintfln("hash:   %s", bs.Hash) +
		pterm.Sprintf("votes:  %d", bs.Votes)

	pterm.DefaultBox.WithTitle(pterm.LightGreen("|BLOCK|")).WithTitleTopCenter().Println(info)
}

func renderBlocks(blocks []database.BlockData) {
	data := pterm.TableData{
		{"Number", "Timestamp", "Difficulty", "Nonce", "Hash", "Votes"},
	}

	for _, bd := range blocks {
		votes := make([]string, len(bd.Votes))
		for i, v := range bd.Votes {
			votes[i] = fmt.Sprintf("%s:%s", v.VoterID, v.Candidate)
		}

		data = append(data, []string{
			strconv.FormatUint(bd.Number, 10),
			bd.TimeStamp,
			strconv.FormatUint(uint64(bd.Difficulty), 10),
			strconv.FormatUint(bd.Nonce, 10),
			shortHash(bd.Hash),
			strings.Join(votes, ", "),
		})
	}

	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderReport(report database.ValidationReport) {
	if report.OK {
		pterm.Success.Println("chain is valid")
		return
	}

	var idx uint64
	if report.Index != nil {
		idx = *report.Index
	}

	info := pterm.Sprintfln("block:  %d", idx) +
		pterm.Sprintfln("kind:   %s", report.Kind) +
		pterm.Sprintf("detail: %s", report.Detail)

	pterm.DefaultBox.WithTitle(pterm.LightRed("|INVALID|")).WithTitleTopCenter().Println(info)
}

func renderReceipt(r state.Receipt) {
	info := pterm.Sprintfln("voter:     %s", r.VoterID) +
		pterm.Sprintfln("candidate: %s", r.Candidate) +
		pterm.Sprintfln("block:     %d %s", r.BlockNumber, r.BlockHash) +
		pterm.Sprintfln("root:      %s", r.MerkleRoot) +
		pterm.Sprintf("proof:     %d hashes", len(r.Proof))

	pterm.DefaultBox.WithTitle(pterm.LightCyan("|RECEIPT|")).WithTitleTopCenter().Println(info)
}

func renderTally(tally []state.CandidateTally) {
	data := pterm.TableData{
		{"Candidate", "Votes"},
	}

	var total int
	bars := make(pterm.Bars, 0, len(tally))
	for _, ct := range tally {
		data = append(data, []string{ct.Candidate, strconv.Itoa(ct.Votes)})
		bars = append(bars, pterm.Bar{Label: ct.Candidate, Value: ct.Votes})
		total += ct.Votes
	}

	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if total > 0 {
		pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Render()
	}
}

func shortHash(hash string) string {
	if len(hash) <= 18 {
		return hash
	}
	return hash[:10] + ".." + hash[len(hash)-6:]
}
