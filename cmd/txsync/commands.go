package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txsync/internal/config"
	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

var errAborted = errors.New("aborted")

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "txsync",
		Short: "Ingest bank exports and reconcile stored transactions",
		Long: `txsync loads CSV exports from several banks into one transaction store.
Running it again over the same or overlapping exports never creates duplicates.`,
		SilenceUsage: true,
	}

	root.SetOut(a.out)
	root.SetIn(a.in)

	root.AddCommand(
		newIngestCmd(a),
		newSyncCmd(a),
		newReconcileCmd(a),
		newFormatsCmd(a),
		newPreviewCmd(a),
	)

	return root
}

func newIngestCmd(a *app) *cobra.Command {
	var target importer.Target

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingest one export into an account",
		Example: `  txsync ingest --format santander --account 3 --bank 1 data/exports/20250611_santander.csv
  txsync ingest --account 5 --bank 2 export.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(cfg *config.Config, store transaction.Store) error {
				report, err := a.importService(cfg, store).ImportFile(cmd.Context(), args[0], target)
				if report != nil {
					printReports(cmd, report)
				}

				return err
			})
		},
	}

	cmd.Flags().StringVar(&target.Format, "format", importer.FormatAuto, "export format, see 'txsync formats'")
	cmd.Flags().Int64Var(&target.AccountID, "account", 0, "destination account id")
	cmd.Flags().Int64Var(&target.BankID, "bank", 0, "bank the account belongs to")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	var manifest, dir string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ingest the newest export of every configured source",
		Long: `sync reads the sources manifest and, for each source, ingests the newest
file in the exports directory whose name starts with a YYYYMMDD stamp and
contains the source's match string.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(cfg *config.Config, store transaction.Store) error {
				if manifest == "" {
					manifest = cfg.Sources.File
				}

				if dir == "" {
					dir = cfg.Sources.Dir
				}

				m, err := importer.LoadManifest(manifest)
				if err != nil {
					return err
				}

				reports, err := a.importService(cfg, store).Sync(cmd.Context(), m, dir)
				printReports(cmd, reports...)

				return err
			})
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "sources manifest (default $SOURCES_FILE)")
	cmd.Flags().StringVar(&dir, "dir", "", "exports directory (default $EXPORTS_DIR)")

	return cmd
}

func newReconcileCmd(a *app) *cobra.Command {
	var (
		accounts []int64
		from, to string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Delete ingested transactions so they can be re-imported",
		Long: `reconcile deletes the owner's transactions and their category rows,
optionally limited to some accounts and to the days in [from, to), then
verifies that nothing matching is left.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(cfg *config.Config, store transaction.Store) error {
				filter := transaction.Filter{Owner: cfg.App.OwnerID, AccountIDs: accounts, Range: rng}

				if !yes {
					ok, err := confirm(cmd, describeFilter(filter))
					if err != nil {
						return err
					}

					if !ok {
						return errAborted
					}
				}

				res, err := a.reconcileEngine(cfg, store).Reconcile(cmd.Context(), filter)

				var partial *transaction.PartialReconciliationError
				if errors.As(err, &partial) {
					cmd.Printf("matched %d, %d still present\n", res.Matched, partial.Remaining)
					return err
				}

				if err != nil {
					return err
				}

				cmd.Printf("deleted %d transactions\n", res.Matched)

				return nil
			})
		},
	}

	cmd.Flags().Int64SliceVar(&accounts, "account", nil, "limit to these account ids (default all of the owner's accounts)")
	cmd.Flags().StringVar(&from, "from", "", "first day to delete, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "day after the last one to delete, YYYY-MM-DD")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newFormatsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported export formats in detection order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range importer.Profiles() {
				fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Description)
			}

			tw.Flush()
		},
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		format    string
		accountID int64
	)

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the records an export would produce, with their identity hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := importer.NewParser(a.logger()).Parse(format, f)
			if err != nil {
				return err
			}

			for _, rej := range res.Rejected {
				cmd.PrintErrln("rejected:", rej)
			}

			dropped, err := importer.WritePreview(cmd.OutOrStdout(), cfg.App.OwnerID, accountID, res)
			for _, rej := range dropped {
				cmd.PrintErrln("rejected:", rej)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", importer.FormatAuto, "export format")
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id folded into the hash")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func printReports(cmd *cobra.Command, reports ...*importer.Report) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tPROFILE\tATTEMPTED\tINSERTED\tSKIPPED\tFAILED\tMALFORMED")

	for _, r := range reports {
		name := r.Source
		if name == "" {
			name = r.File
		}

		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			name, r.Profile, s.Attempted, s.Inserted, s.Skipped, s.Failed, s.Malformed)
	}

	tw.Flush()
}

func parseRange(from, to string) (*transaction.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}

	if from == "" || to == "" {
		return nil, errors.New("--from and --to must be given together")
	}

	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}

	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return nil, fmt.Errorf("invalid --to: %w", err)
	}

	rng := &transaction.DateRange{From: f, To: t}

	return rng, rng.Validate()
}

func describeFilter(f transaction.Filter) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Delete transactions of %s", f.Owner)

	if len(f.AccountIDs) > 0 {
		fmt.Fprintf(&sb, " in accounts %v", f.AccountIDs)
	} else {
		sb.WriteString(" in all accounts")
	}

	if f.Range != nil {
		fmt.Fprintf(&sb, " from %s to %s", f.Range.From.Format(time.DateOnly), f.Range.To.Format(time.DateOnly))
	}

	return sb.String()
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	cmd.Printf("%s? [y/N] ", prompt)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}
