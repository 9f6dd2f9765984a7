// Command dbinspect prints what the Bookshelf stores hold and flags PDFs and
// images that have lost their book, or books whose attachments are gone.
// Both stores are only read.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/inspect"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// errProblems makes check exit non-zero without printing usage.
var errProblems = errors.New("inconsistencies found")

type options struct {
	dataPath    string
	catalogPath string
	blobPath    string
	owner       string
	asJSON      bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "dbinspect",
		Short:         "Inspect the Bookshelf catalog and blob stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataPath, "data-path", "", "Root directory for stored data")
	flags.StringVar(&opts.catalogPath, "catalog-path", "", "Directory of the catalog store")
	flags.StringVar(&opts.blobPath, "blob-path", "", "Path of the blob database file")
	flags.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of tables")

	blobsCmd := &cobra.Command{
		Use:       "blobs {pdfs|images}",
		Short:     "List blob metadata in one partition",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(domain.PartitionPDFs), string(domain.PartitionImages)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInspector(cmd.Context(), opts, func(in *inspect.Inspector) error {
				infos, err := in.Blobs(cmd.Context(), domain.Partition(args[0]), opts.owner)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), infos)
				}
				printBlobs(cmd.OutOrStdout(), infos)
				return nil
			})
		},
	}
	blobsCmd.Flags().StringVar(&opts.owner, "owner", "", "Only list blobs owned by this book ID")

	root.AddCommand(
		&cobra.Command{
			Use:   "summary",
			Short: "Show catalog counts, categories and the signed-in user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withInspector(cmd.Context(), opts, func(in *inspect.Inspector) error {
					sum, err := in.Summarize(cmd.Context())
					if err != nil {
						return err
					}
					if opts.asJSON {
						return printJSON(cmd.OutOrStdout(), sum)
					}
					printSummary(cmd.OutOrStdout(), sum)
					return nil
				})
			},
		},
		blobsCmd,
		&cobra.Command{
			Use:   "check",
			Short: "Report orphaned blobs and books with missing attachments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withInspector(cmd.Context(), opts, func(in *inspect.Inspector) error {
					r, err := in.Check(cmd.Context())
					if err != nil {
						return err
					}
					if opts.asJSON {
						if err := printJSON(cmd.OutOrStdout(), r); err != nil {
							return err
						}
					} else {
						printReport(cmd.OutOrStdout(), r)
					}
					if !r.Clean() {
						return errProblems
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "dump",
			Short: "Print every catalog key with its raw JSON value",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withInspector(cmd.Context(), opts, func(in *inspect.Inspector) error {
					entries, err := in.Dump(cmd.Context())
					if err != nil {
						return err
					}
					return printDump(cmd.OutOrStdout(), entries)
				})
			},
		},
	)

	return root
}

// withInspector opens both stores for the duration of fn.
func withInspector(ctx context.Context, opts *options, fn func(*inspect.Inspector) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var args []string
	for flag, v := range map[string]string{
		"-data-path":    opts.dataPath,
		"-catalog-path": opts.catalogPath,
		"-blob-path":    opts.blobPath,
	} {
		if v != "" {
			args = append(args, flag, v)
		}
	}
	// No .env lookup; the paths come from flags and the environment only.
	args = append(args, "-env-file", os.DevNull)

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	catalog, err := store.Open(cfg.Storage.CatalogPath, nil, store.Options{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open catalog at %s: %w", cfg.Storage.CatalogPath, err)
	}
	defer catalog.Close()

	blobs, err := sqlite.OpenReadOnly(ctx, cfg.Storage.BlobPath, nil)
	if err != nil {
		return fmt.Errorf("open blobs at %s: %w", cfg.Storage.BlobPath, err)
	}
	defer blobs.Close()

	return fn(inspect.New(catalog, blobs))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDump writes entries as one JSON object, keeping their order.
func printDump(w io.Writer, entries []store.RawEntry) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return err
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, e.Value, "  ", "  "); err != nil {
			return fmt.Errorf("indent %s: %w", e.Key, err)
		}
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	_, err := buf.WriteTo(w)
	return err
}

func printSummary(w io.Writer, sum *inspect.Summary) {
	fmt.Fprintln(w, "=== Catalog ===")
	if !sum.Saved {
		fmt.Fprintln(w, "(book list never saved)")
	}
	fmt.Fprintf(w, "Books:      %d\n", sum.Stats.TotalBooks)
	fmt.Fprintf(w, "Favorites:  %d\n", sum.Stats.Favorites)
	fmt.Fprintf(w, "With PDF:   %d\n", sum.Stats.WithPDF)
	fmt.Fprintf(w, "Theme:      %s\n", sum.Theme)
	fmt.Fprintf(w, "Admin:      %s\n", sum.Email)
	fmt.Fprintf(w, "Schema:     v%d\n", sum.BlobSchema)
	if sum.SignedIn != nil {
		fmt.Fprintf(w, "Signed in:  %s <%s>\n", sum.SignedIn.Name, sum.SignedIn.Email)
	} else {
		fmt.Fprintln(w, "Signed in:  no")
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tBOOKS")
	for _, c := range sum.Categories {
		fmt.Fprintf(tw, "%s\t%d\n", c, sum.Stats.ByCategory[c])
	}
	tw.Flush()

	if len(sum.Stats.RecentlyAdded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recently added:")
		for _, b := range sum.Stats.RecentlyAdded {
			fmt.Fprintf(w, "  %s  %s by %s\n", b.DateAdded.Format("2006-01-02"), b.Title, b.Author)
		}
	}
}

func printBlobs(w io.Writer, infos []domain.BlobInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tNAME\tTYPE\tSIZE\tUPLOADED")
	for _, b := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			b.ID, b.OwnerID, b.FileName, b.FileType, b.FileSize, b.UploadedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d blob(s)\n", len(infos))
}

func printReport(w io.Writer, r *inspect.Report) {
	if r.Clean() {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	for _, b := range r.OrphanPDFs {
		fmt.Fprintf(w, "orphan pdf     %s (%s, %d bytes)\n", b.ID, b.FileName, b.FileSize)
	}
	for _, b := range r.OrphanImages {
		fmt.Fprintf(w, "orphan image   %s (%s, %d bytes)\n", b.ID, b.FileName, b.FileSize)
	}
	for _, b := range r.MissingPDFs {
		fmt.Fprintf(w, "missing pdf    %s %q expects %s\n", b.ID, b.Title, b.PDFName)
	}
	for _, b := range r.MissingCovers {
		fmt.Fprintf(w, "missing cover  %s %q expects %s\n", b.ID, b.Title, b.CoverID)
	}
}
