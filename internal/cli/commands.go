package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
)

const dateLayout = "2006-01-02"

func (a *app) relationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relations",
		Short: "List relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relations, err := a.svc.ListRelations(cmd.Context())
			if err != nil {
				return err
			}
			return printRelations(cmd.OutOrStdout(), relations)
		},
	}
}

func (a *app) ledgersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ledgers",
		Short: "List ledger accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledgers, err := a.svc.ListLedgers(cmd.Context())
			if err != nil {
				return err
			}
			return printLedgers(cmd.OutOrStdout(), ledgers)
		},
	}
}

func (a *app) mutationsCmd() *cobra.Command {
	var (
		number   int64
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "mutations",
		Short: "List mutations",
		Long:  "List mutations, optionally narrowed to one mutation number or a date range (YYYY-MM-DD).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := &accounting.MutationFilter{Number: number}
			var err error
			if filter.DateFrom, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if filter.DateTo, err = parseDateFlag("to", to); err != nil {
				return err
			}

			mutations, err := a.svc.ListMutations(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printMutations(cmd.OutOrStdout(), mutations)
		},
	}

	cmd.Flags().Int64Var(&number, "number", 0, "mutation number")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	return cmd
}

func (a *app) invoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoice <file.json>",
		Short: "Create an invoice from a work order file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := readWorkOrder(args[0])
			if err != nil {
				return err
			}

			number, err := a.svc.CreateInvoice(cmd.Context(), order)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created invoice %s (%d lines)\n", number, order.LineCount())
			return nil
		},
	}
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	return &t, nil
}

func readWorkOrder(path string) (*accounting.WorkOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var order accounting.WorkOrder
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to read work order %s: %w", path, err)
	}
	return &order, nil
}

func printRelations(out io.Writer, relations []accounting.Relation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tCOMPANY\tCITY\tEMAIL")
	for _, r := range relations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Code,
			r.Company,
			orDash(r.City),
			orDash(r.Email),
		)
	}
	return w.Flush()
}

func printLedgers(out io.Writer, ledgers []accounting.Ledger) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tCATEGORY\tDESCRIPTION")
	for _, l := range ledgers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, l.Code, l.Category, l.Description)
	}
	return w.Flush()
}

func printMutations(out io.Writer, mutations []accounting.Mutation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tDATE\tKIND\tACCOUNT\tRELATION\tINVOICE\tLINES\tDESCRIPTION")
	for _, m := range mutations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			m.Number,
			m.Date.Format(dateLayout),
			m.Kind,
			m.Account,
			m.RelationCode,
			m.InvoiceNumber,
			len(m.Lines),
			m.Description,
		)
	}
	return w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
