package cmd

import (
	"context"
	"errors"
	neturl "net/url"

	"github.com/ardanlabs/votechain/foundation/blockchain/state"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt <voter>",
	Short: "Fetch and verify the proof that a vote is on the chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var receipt state.Receipt
		if err := newClient(url).get(ctx, "/v1/votes/"+neturl.PathEscape(args[0])+"/receipt", &receipt); err != nil {
			return err
		}

		renderReceipt(receipt)

		if err := receipt.Verify(); err != nil {
			return errors.Join(errors.New("receipt does not verify"), err)
		}
		pterm.Success.Println("receipt verified against the block merkle root")

		return nil
	},
}

var tallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Count the votes per candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var tally []state.CandidateTally
		if err := newClient(url).get(ctx, "/v1/tally", &tally); err != nil {
			return err
		}

		renderTally(tally)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(receiptCmd)
	rootCmd.AddCommand(tallyCmd)
}
