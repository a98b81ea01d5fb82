package commands

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/internal/export"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// flowQueryFlags holds the search flags shared by the flows subcommands.
type flowQueryFlags struct {
	instances []string
	query     string
	start     string
	end       string
	sort      []string
	fields    []string
	size      int
}

func (f *flowQueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.instances, "instance", "i", nil, "instance ID to search (repeatable; defaults to the configured instance)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "PQL query, e.g. \"dst.port eq 443 and bytes gt 1000\"")
	cmd.Flags().StringVar(&f.start, "start", "", "start of the time range: now, 15m, 24h, 7d, 2w or RFC 3339")
	cmd.Flags().StringVar(&f.end, "end", "", "end of the time range, same forms as --start")
	cmd.Flags().StringSliceVar(&f.sort, "sort", nil, "sort field, optionally field:asc or field:desc (repeatable)")
	cmd.Flags().StringSliceVar(&f.fields, "fields", nil, "fields to return (default all)")
	cmd.Flags().IntVar(&f.size, "size", constants.DefaultFlowPageSize, "page size (1-25000)")
}

// buildQuery turns the flags into a FlowQuery, falling back to the
// configured default instance.
func (f *flowQueryFlags) buildQuery(config *Config) (*prophet.FlowQuery, error) {
	instances := f.instances
	if len(instances) == 0 && config.Instance != "" {
		instances = []string{config.Instance}
	}

	if len(instances) == 0 {
		return nil, constants.ErrInstanceRequired
	}

	query := &prophet.FlowQuery{
		Instances: instances,
		Query:     f.query,
		Fields:    f.fields,
		Size:      f.size,
	}

	var err error

	if f.start != "" {
		query.Start, err = prophet.ParseTimeFilter(f.start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
	}

	if f.end != "" {
		query.End, err = prophet.ParseTimeFilter(f.end)
		if err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
	}

	for _, s := range f.sort {
		sort, err := prophet.ParseSort(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --sort: %w", err)
		}

		query.Sort = append(query.Sort, sort)
	}

	return query, nil
}

// NewFlowsCommand creates the flows command group.
func NewFlowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flows",
		Aliases: []string{"flow"},
		Short:   "Search flow records",
		Long:    "Search, page through and export network flow records",
	}

	cmd.AddCommand(newFlowsSearchCommand())
	cmd.AddCommand(newFlowsPageCommand())
	cmd.AddCommand(newFlowsExportCommand())

	return cmd
}

func newFlowsSearchCommand() *cobra.Command {
	var (
		flags flowQueryFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search flow records",
		Long:  "Search flow records, reading as many pages as needed to reach --limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.buildQuery(loadConfig())
			if err != nil {
				return err
			}

			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			it, err := client.Flows().Query(query)
			if err != nil {
				return err
			}

			if limit > 0 {
				it.Take(limit)
			}

			flows, err := it.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to search flows: %w", err)
			}

			if flows == nil {
				flows = []prophet.Flow{}
			}

			err = render(cmd.OutOrStdout(), flows, func(w io.Writer) error {
				return displayFlowsTable(w, flows)
			})
			if err != nil {
				return err
			}

			if found, ok := it.TotalFound(); ok && outputFormat() == constants.FormatTable {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Showing %d of %d matching flows\n", len(flows), found)
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultSearchLimit, "maximum number of records (0 for all)")

	return cmd
}

// PageSummary describes one page of results for the page command.
type PageSummary struct {
	Page     int     `json:"page"                yaml:"page"`
	Returned int     `json:"returned"            yaml:"returned"`
	Found    int     `json:"found"               yaml:"found"`
	HasMore  bool    `json:"more_data_available" yaml:"more_data_available"`
	Took     float64 `json:"took"                yaml:"took"`
}

func newFlowsPageCommand() *cobra.Command {
	var (
		flags     flowQueryFlags
		pageCount int
		withFlows bool
	)

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch pages of flow records",
		Long:  "Fetch up to --page-count pages of a search and summarize each page",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.buildQuery(loadConfig())
			if err != nil {
				return err
			}

			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			it, err := client.Flows().Query(query)
			if err != nil {
				return err
			}

			var pages []*prophet.FlowPage

			for range max(pageCount, 1) {
				page, err := it.NextPage(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch page %d: %w", it.PageNumber(), err)
				}

				if page == nil {
					break
				}

				pages = append(pages, page)
			}

			if withFlows {
				return render(cmd.OutOrStdout(), pages, func(w io.Writer) error {
					for _, page := range pages {
						err := displayFlowsTable(w, page.Flows)
						if err != nil {
							return err
						}
					}

					return nil
				})
			}

			summaries := make([]PageSummary, 0, len(pages))
			for _, page := range pages {
				summaries = append(summaries, PageSummary{
					Page:     page.CurrentPage,
					Returned: page.Returned,
					Found:    page.Found,
					HasMore:  page.HasMore,
					Took:     page.Took,
				})
			}

			return render(cmd.OutOrStdout(), summaries, func(w io.Writer) error {
				return displayPagesTable(w, summaries)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&pageCount, "page-count", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&withFlows, "with-flows", false, "print the records of each page")

	return cmd
}

func newFlowsExportCommand() *cobra.Command {
	var (
		flags   flowQueryFlags
		natsURL string
		subject string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish flow records to NATS",
		Long:  "Stream the records of a search to a NATS subject, one JSON message per record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if natsURL == "" {
				return constants.ErrNATSURLRequired
			}

			query, err := flags.buildQuery(loadConfig())
			if err != nil {
				return err
			}

			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			it, err := client.Flows().Query(query)
			if err != nil {
				return err
			}

			if limit > 0 {
				it.Take(limit)
			}

			conn, err := export.Connect(natsURL, "prophet-cli")
			if err != nil {
				return err
			}
			defer conn.Close()

			exporter, err := export.NewExporter(conn, subject,
				export.WithLogger(prophet.NewZerologLogger(newLogger(cmd.ErrOrStderr()))),
				export.WithInstanceID(query.Instances[0]),
			)
			if err != nil {
				return err
			}

			count, err := exporter.Export(cmd.Context(), it)
			if err != nil {
				return fmt.Errorf("export stopped after %d records: %w", count, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Published %d flow records to %s\n", count, exporter.Subject())

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL, e.g. nats://localhost:4222")
	cmd.Flags().StringVar(&subject, "subject", constants.DefaultNATSSubject, "NATS subject to publish on")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 for all)")

	return cmd
}

func displayFlowsTable(w io.Writer, flows []prophet.Flow) error {
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Source", "Destination", "Proto", "Bytes", "Packets", "App")

	for i := range flows {
		flow := &flows[i]

		timestamp := constants.NotAvailable
		if t, ok := flow.TimestampTime(); ok {
			timestamp = t.UTC().Format(time.RFC3339)
		}

		appName := ""
		if flow.AppName != nil {
			appName = *flow.AppName
		}

		_ = table.Append([]string{
			timestamp,
			formatEndpoint(flow.SrcIP(), flow.SrcPort()),
			formatEndpoint(flow.DstIP(), flow.DstPort()),
			flow.Protocol(),
			strconv.FormatFloat(flow.Bytes(), 'f', -1, 64),
			strconv.FormatFloat(flow.Packets(), 'f', -1, 64),
			appName,
		})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func displayPagesTable(w io.Writer, summaries []PageSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Page", "Returned", "Found", "More", "Took (ms)")

	for _, s := range summaries {
		_ = table.Append([]string{
			strconv.Itoa(s.Page),
			strconv.Itoa(s.Returned),
			strconv.Itoa(s.Found),
			strconv.FormatBool(s.HasMore),
			strconv.FormatFloat(s.Took, 'f', -1, 64),
		})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatEndpoint(ip string, port int) string {
	if ip == "" {
		return constants.NotAvailable
	}

	if port == 0 {
		return ip
	}

	return net.JoinHostPort(ip, strconv.Itoa(port))
}
