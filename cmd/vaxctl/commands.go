package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
)

const dateLayout = "2006-01-02"

// Output formats of the publications command
const (
	formatMarkdown = "markdown"
	formatTable    = "table"
)

// countryArg picks the --country flag, then the positional argument, then
// the first dashboard country
func countryArg(b *backend, flag string, args []string) string {
	switch {
	case flag != "":
		return flag
	case len(args) > 0:
		return args[0]
	default:
		return b.service.Catalog().Default().Name
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func newSeriesCmd(opts *options, factory backendFactory) *cobra.Command {
	var (
		country string
		last    int
	)
	cmd := &cobra.Command{
		Use:   "series [country]",
		Short: "Print the daily vaccinations per million of a country",
		Long: `Print the daily vaccinations per million of a country, given by name or
ISO code. Without an argument the first dashboard country is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if last < 0 {
				return fmt.Errorf("--last cannot be negative")
			}
			return run(cmd, opts, factory, func(ctx context.Context, b *backend) error {
				if err := b.service.Refresh(ctx); err != nil {
					return err
				}
				view, err := b.service.CountryView(countryArg(b, country, args))
				if err != nil {
					return err
				}
				writeSeries(cmd.OutOrStdout(), view, last)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&country, "country", "c", "", "Country name or ISO code")
	cmd.Flags().IntVar(&last, "last", 0, "Only print the last n observations (0 prints all)")
	return cmd
}

func writeSeries(w io.Writer, view *dashboard.CountryView, last int) {
	obs := view.Series.Observations
	if last > 0 && last < len(obs) {
		obs = obs[len(obs)-last:]
	}

	fmt.Fprintf(w, "%s (%s)\n", view.Country.Name, view.Country.ISOCode)
	table := newTable(w, "Date", "Per million")
	for _, o := range obs {
		table.Append([]string{o.Date.Format(dateLayout), strconv.FormatFloat(o.PerMillion, 'f', 2, 64)})
	}
	table.Render()

	s := view.Summary
	if s.Points == 0 {
		fmt.Fprintln(w, "No observations")
		return
	}
	peak := s.Peak.StringFixed(2)
	if s.PeakDate != nil {
		peak += " on " + s.PeakDate.Format(dateLayout)
	}
	fmt.Fprintf(w, "Points: %d  Latest: %s  Peak: %s  Mean: %s\n",
		s.Points, s.Latest.StringFixed(2), peak, s.Mean.StringFixed(2))
}

func newApprovalsCmd(opts *options, factory backendFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "approvals",
		Short: "List the vaccines approved in each dashboard country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, factory, func(ctx context.Context, b *backend) error {
				approvals, err := b.source.FetchApprovals(ctx)
				if err != nil {
					return err
				}
				writeApprovals(cmd.OutOrStdout(), b.service.Countries(), approvals)
				return nil
			})
		},
	}
}

func writeApprovals(w io.Writer, countries []vaccination.Country, approvals vaccination.Approvals) {
	table := newTable(w, "ISO", "Country", "Vaccines")
	for _, c := range countries {
		table.Append([]string{c.ISOCode, c.Name, approvals.For(c.ISOCode)})
	}
	table.Render()
}

func newPublicationsCmd(opts *options, factory backendFactory) *cobra.Command {
	var (
		term     string
		maxCount int
		format   string
	)
	cmd := &cobra.Command{
		Use:   "publications",
		Short: "List the latest PubMed publications for a search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatMarkdown && format != formatTable {
				return fmt.Errorf("unknown format %q (use %s or %s)", format, formatMarkdown, formatTable)
			}
			// NewQuery reads 0 as "use the default"; an explicit flag must not
			if cmd.Flags().Changed("max") && maxCount < 1 {
				return fmt.Errorf("%w: %d (allowed 1-%d)", literature.ErrInvalidMaxCount, maxCount, literature.MaxMaxCount)
			}
			return run(cmd, opts, factory, func(ctx context.Context, b *backend) error {
				t, n := b.query.Term, b.query.MaxCount
				if cmd.Flags().Changed("term") {
					t = term
				}
				if cmd.Flags().Changed("max") {
					n = maxCount
				}
				query, err := literature.NewQuery(t, n)
				if err != nil {
					return err
				}

				result, err := b.service.Publications(ctx, query)
				if err != nil {
					return err
				}
				writePublications(cmd.OutOrStdout(), query, result, format)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&term, "term", "t", "", "Search term (default from configuration)")
	cmd.Flags().IntVarP(&maxCount, "max", "n", 0, "Number of publications, 1-100 (default from configuration)")
	cmd.Flags().StringVarP(&format, "format", "f", formatMarkdown, "Output format: markdown or table")
	return cmd
}

func writePublications(w io.Writer, query literature.Query, result *literature.SearchResult, format string) {
	fmt.Fprintln(w, dashboard.PublicationsHeading(query))
	pubs := dashboard.NumberPublications(result.Publications)

	switch format {
	case formatTable:
		table := newTable(w, "#", "PMID", "Title")
		for i, p := range pubs {
			table.Append([]string{strconv.Itoa(p.Number), result.Publications[i].PMID, p.Title})
		}
		table.Render()
	default:
		for _, p := range pubs {
			fmt.Fprintln(w, p.MarkdownLine())
		}
	}
	fmt.Fprintf(w, "%d matching publications\n", result.Count)
}

func newRenderCmd(opts *options, factory backendFactory) *cobra.Command {
	var country, output string
	cmd := &cobra.Command{
		Use:   "render [country]",
		Short: "Write the vaccination chart of a country as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, factory, func(ctx context.Context, b *backend) error {
				if err := b.service.Refresh(ctx); err != nil {
					return err
				}
				svg, err := b.service.Chart(countryArg(b, country, args))
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(svg)
					return err
				}
				if err := os.WriteFile(output, svg, 0o644); err != nil {
					return fmt.Errorf("write chart: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Chart written to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&country, "country", "c", "", "Country name or ISO code")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default stdout)")
	return cmd
}
