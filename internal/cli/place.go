package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/amount"
)

func newPlaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Change a place's balance",
		Long: `Change a place's balance. Amounts are always positive; the subcommand picks the
direction. Use "--" before an amount that starts with '-' to see how it is rejected.`,
	}

	cmd.AddCommand(newPlaceChangeCmd("deposit", "Add funds to a place", "Deposit", changeDeposit))
	cmd.AddCommand(newPlaceChangeCmd("withdraw", "Remove funds from a place", "Withdrawal", changeWithdraw))

	return cmd
}

type changeFunc func(ctx context.Context, placeID model.PlaceID, raw string) (*model.BalanceUpdate, error)

func changeDeposit(ctx context.Context, placeID model.PlaceID, raw string) (*model.BalanceUpdate, error) {
	return current.Deposit(ctx, placeID, raw)
}

func changeWithdraw(ctx context.Context, placeID model.PlaceID, raw string) (*model.BalanceUpdate, error) {
	return current.Withdraw(ctx, placeID, raw)
}

func newPlaceChangeCmd(use, short, operation string, change changeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <device-id> <place> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseDeviceID(args[0])
			if err != nil {
				return err
			}
			placeID, err := parsePlaceID(args[1])
			if err != nil {
				return err
			}

			if _, err := current.Open(cmd.Context(), deviceID); err != nil {
				return err
			}
			defer current.Leave()

			update, err := change(cmd.Context(), placeID, args[2])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			out.Print(ChangeResult{
				Operation: operation,
				Amount:    amount.MustParse(args[2]).String(),
				Update:    update,
				Players:   current.Players(),
			})
			return nil
		},
	}
}

func parseDeviceID(s string) (model.DeviceID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid device id %q", s)
	}
	return model.DeviceID(id), nil
}

func parsePlaceID(s string) (model.PlaceID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid place %q", s)
	}
	return model.PlaceID(id), nil
}
