package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	outPath    string
	chainPath  string
	showNumber int
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show the blocks on the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient(url)

		var blocks []database.BlockData
		if showNumber >= 0 {
			var bd database.BlockData
			if err := c.get(ctx, "/v1/chain/"+strconv.Itoa(showNumber), &bd); err != nil {
				return err
			}
			blocks = append(blocks, bd)
		} else {
			if err := c.get(ctx, "/v1/chain", &blocks); err != nil {
				return err
			}
		}

		renderBlocks(blocks)

		if outPath != "" {
			data, err := json.MarshalIndent(blocks, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("writing chain: %w", err)
			}
			pterm.Success.Printfln("chain written to %s", outPath)
		}

		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the chain on the ledger or in an exported file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var report database.ValidationReport

		switch chainPath {
		case "":
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := newClient(url).get(ctx, "/v1/chain/validate", &report); err != nil {
				return err
			}

		default:
			var err error
			if report, err = validateFile(chainPath); err != nil {
				return err
			}
		}

		renderReport(report)

		if !report.OK {
			return errors.New("chain is invalid")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().IntVarP(&showNumber, "number", "n", -1, "Show only this block.")
	chainCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the exported blocks to this file.")

	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&chainPath, "file", "f", "", "Validate an exported chain file instead of the ledger.")
}

// validateFile rebuilds the blocks from an exported chain and re-checks them.
func validateFile(path string) (database.ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return database.ValidationReport{}, err
	}

	var bds []database.BlockData
	if err := json.Unmarshal(data, &bds); err != nil {
		return database.ValidationReport{}, fmt.Errorf("decoding chain: %w", err)
	}

	blocks := make([]database.Block, len(bds))
	for i, bd := range bds {
		if blocks[i], err = database.ToBlock(bd); err != nil {
			return database.ValidationReport{}, fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return database.ValidateBlocks(blocks), nil
}
