package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/placeledger/internal/model"
	"github.com/mcoot/placeledger/internal/services/places"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error. Mutation failures include their kind.
func (o *Output) PrintError(err error) {
	var merr *model.MutationError
	isMutation := errors.As(err, &merr)

	if o.format == "json" {
		body := map[string]string{"message": err.Error()}
		if isMutation {
			body["kind"] = string(merr.Kind)
		}
		data, _ := json.Marshal(map[string]any{"error": body})
		fmt.Fprintln(o.errOut, string(data))
		return
	}

	if isMutation {
		fmt.Fprintf(o.errOut, "Error (%s): %s\n", merr.Kind, err)
		return
	}
	fmt.Fprintf(o.errOut, "Error: %s\n", err)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case DeviceList:
		o.printDeviceList(v)
	case DeviceView:
		o.printDeviceView(v)
	case ChangeResult:
		o.printChangeResult(v)
	case AmountCheck:
		o.printAmountCheck(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// DeviceList is the devices list result
type DeviceList []*model.Device

// DeviceView is one device with its players
type DeviceView struct {
	Device  *model.Device `json:"device"`
	Players []model.Place `json:"players"`
}

// ChangeResult is the outcome of a deposit or withdrawal
type ChangeResult struct {
	Operation string               `json:"operation"`
	Amount    string               `json:"amount"`
	Update    *model.BalanceUpdate `json:"update"`
	Players   []model.Place        `json:"players"`
}

// AmountCheck reports how an input would be treated
type AmountCheck struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Partial    bool   `json:"partial"`
	Valid      bool   `json:"valid"`
	Amount     string `json:"amount,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printDeviceList(list DeviceList) {
	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPLACES\tUPDATED")
	for _, d := range list {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", d.ID, d.Name, len(d.Places), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func (o *Output) printDeviceView(v DeviceView) {
	fmt.Fprintf(o.out, "Device: %s (%d)\n", v.Device.Name, v.Device.ID)
	o.printPlayers(v.Players, 0)
}

func (o *Output) printPlayers(players []model.Place, highlight model.PlaceID) {
	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLACE\tPLAYER\tBALANCE\t")
	for _, p := range players {
		marker := ""
		if p.ID == highlight {
			marker = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, places.FormatBalance(p.Balance, p.Currency), marker)
	}
	_ = tw.Flush()
}

func (o *Output) printChangeResult(r ChangeResult) {
	fmt.Fprintf(o.out, "%s of %s on place %d: new balance %s\n",
		r.Operation, r.Amount, r.Update.PlaceID, places.FormatBalance(r.Update.NewBalance, r.Update.Currency))
	o.printPlayers(r.Players, r.Update.PlaceID)
}

func (o *Output) printAmountCheck(c AmountCheck) {
	fmt.Fprintf(o.out, "Input: %q\n", c.Input)
	fmt.Fprintf(o.out, "Normalized: %q\n", c.Normalized)
	fmt.Fprintf(o.out, "Acceptable while typing: %t\n", c.Partial)
	if c.Valid {
		fmt.Fprintf(o.out, "Valid: yes (%s)\n", c.Amount)
	} else {
		fmt.Fprintf(o.out, "Valid: no (%s)\n", c.Reason)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.out, "Status: %s\n", h.Status)
}
