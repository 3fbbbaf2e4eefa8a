package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/votechain/foundation/blockchain/state"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	voterID    string
	candidate  string
	difficulty int
)

type blockResult struct {
	Status string             `json:"status"`
	Block  state.BlockSummary `json:"block"`
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Cast a vote and wait for its block to be mined",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := struct {
			VoterID    string `json:"voter_id"`
			Candidate  string `json:"candidate"`
			Difficulty *uint  `json:"difficulty,omitempty"`
		}{
			VoterID:    voterID,
			Candidate:  candidate,
			Difficulty: difficultyFlag(),
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var br blockResult
		mine := func() (string, error) {
			if err := newClient(url).post(ctx, "/v1/votes", in, &br); err != nil {
				return "", err
			}
			return br.Status, nil
		}

		if err := progress(fmt.Sprintf("mining block for %s", voterID), mine); err != nil {
			return err
		}

		renderSummary(br.Block)
		return nil
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine a block from votes left pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := struct {
			Difficulty *uint `json:"difficulty,omitempty"`
		}{
			Difficulty: difficultyFlag(),
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var br blockResult
		if err := newClient(url).post(ctx, "/v1/votes/mine", in, &br); err != nil {
			return err
		}

		pterm.Success.Println(br.Status)
		renderSummary(br.Block)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&voterID, "voter", "v", "", "Unique id of the voter.")
	submitCmd.Flags().StringVarP(&candidate, "candidate", "c", "", "Candidate to vote for.")
	submitCmd.Flags().IntVarP(&difficulty, "difficulty", "d", -1, "Leading zeros required, -1 uses the ledger default.")
	submitCmd.MarkFlagRequired("voter")
	submitCmd.MarkFlagRequired("candidate")

	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().IntVarP(&difficulty, "difficulty", "d", -1, "Leading zeros required, -1 uses the ledger default.")
}

// startSpinner is replaced in tests.
var startSpinner = pterm.DefaultSpinner.Start

// progress runs fn behind a spinner and reports its outcome. When the
// spinner cannot start, fn still runs and plain status lines are printed.
func progress(text string, fn func() (string, error)) error {
	spinner, err := startSpinner(text)
	if err != nil {
		pterm.Warning.Printfln("spinner unavailable: %s", err)
		pterm.Info.Println(text)
		spinner = nil
	}

	msg, err := fn()

	switch {
	case spinner == nil && err != nil:
		pterm.Error.Println(err)
	case spinner == nil:
		pterm.Success.Println(msg)
	case err != nil:
		spinner.Fail(err)
	default:
		spinner.Success(msg)
	}

	return err
}

func difficultyFlag() *uint {
	if difficulty < 0 {
		return nil
	}
	d := uint(difficulty)
	return &d
}
