package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/placeledger/internal/services/amount"
)

func newAmountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amount",
		Short: "Amount input helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <input>",
		Short: "Show whether an input is accepted as an amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			out.Print(checkAmount(args[0]))
			return nil
		},
	})

	return cmd
}

func checkAmount(raw string) AmountCheck {
	check := AmountCheck{
		Input:      raw,
		Normalized: amount.Normalize(raw),
		Partial:    amount.IsPartial(raw),
	}

	amt, err := amount.Validate(raw)
	if err != nil {
		check.Reason = err.Error()
		return check
	}
	check.Valid = true
	check.Amount = amt.String()
	return check
}
