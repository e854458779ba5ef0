package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/pubsheet/internal/config"
	"github.com/JonMunkholm/pubsheet/internal/logging"
	"github.com/JonMunkholm/pubsheet/internal/source"
	"github.com/JonMunkholm/pubsheet/internal/tools"
	"github.com/spf13/cobra"
)

// toolError is returned after a failed tool call has already been reported.
type toolError struct {
	code string
}

func (e *toolError) Error() string {
	return "tool call failed: " + e.code
}

// cli holds state shared by the subcommands.
type cli struct {
	fetcher  tools.Fetcher
	service  *tools.Service
	logLevel string
}

// newRootCmd builds the command tree. A nil fetcher is built from the
// environment configuration when a command runs.
func newRootCmd(f tools.Fetcher) *cobra.Command {
	c := &cli{fetcher: f}

	root := &cobra.Command{
		Use:           "pubsheet",
		Short:         "Query published Google Sheets as CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		c.toolCmd("list", "list_rows", "List rows of a sheet tab, paged", pageFlags),
		c.toolCmd("query", "query_rows", "Filter, sort, select and page rows", queryFlags),
		c.toolCmd("export", "export_subset", "Export filtered, selected rows as CSV or JSON", exportFlags),
		c.callCmd(),
		c.toolsCmd(),
	)
	return root
}

func (c *cli) setup(stderr io.Writer) error {
	if _, err := logging.ParseLevel(c.logLevel); err != nil {
		return err
	}
	slog.SetDefault(logging.New(stderr, c.logLevel, "text"))

	if c.fetcher == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c.fetcher = source.NewFetcher(source.Options{
			BaseURL:      cfg.Fetch.BaseURL,
			Timeout:      cfg.Fetch.Timeout,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
			UserAgent:    cfg.Fetch.UserAgent,
		})
	}
	c.service = tools.NewService(c.fetcher)
	return nil
}

// run calls the tool and prints its text. A failed call prints the error
// string and a hint to stderr.
func (c *cli) run(cmd *cobra.Command, tool string, args tools.Args) error {
	out := c.service.Call(cmd.Context(), tool, args)

	if out.Failed() {
		stderr := cmd.ErrOrStderr()
		fmt.Fprintln(stderr, out.Text)
		fmt.Fprintln(stderr, "Hint:", tools.FormatUserError(out.Err))
		return &toolError{code: out.Code}
	}

	text := out.Text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(cmd.OutOrStdout(), text)
	return err
}

// flagSet registers flags on a command and converts the ones the user set
// into tool arguments.
type flagSet func(cmd *cobra.Command) func(args tools.Args) error

func (c *cli) toolCmd(use, tool, short string, flags flagSet) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
	}
	src := sourceFlags(cmd)
	extra := flags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		args := tools.Args{}
		if err := src(args); err != nil {
			return err
		}
		if err := extra(args); err != nil {
			return err
		}
		return c.run(cmd, tool, args)
	}
	return cmd
}

func (c *cli) callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Call a tool with raw JSON arguments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var raw []byte
			if len(argv) == 2 {
				raw = []byte(argv[1])
			}
			args, err := tools.DecodeArgs(raw)
			if err != nil {
				return err
			}
			return c.run(cmd, argv[0], args)
		},
	}
}

func (c *cli) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Describe the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, def := range tools.All() {
				fmt.Fprintf(w, "%s\n  %s\n", def.Name, def.Description)
				for _, p := range def.Params {
					dflt := ""
					if p.Default != "" {
						dflt = " (default " + p.Default + ")"
					}
					fmt.Fprintf(w, "    %-17s %-8s %s%s\n", p.Name, p.Type, p.Description, dflt)
				}
			}
			return nil
		},
	}
}

func sourceFlags(cmd *cobra.Command) func(tools.Args) error {
	f := cmd.Flags()
	u := f.String("url", "", "published or edit link to the sheet")
	id := f.String("pub-id", "", "published id (2PACX-...) or document id")
	gid := f.String("gid", source.DefaultGID, "tab id")
	header := f.Int("header-row", tools.DefaultHeaderRow, "1-based row holding the column names")

	return func(args tools.Args) error {
		setIfChanged(cmd, args, "url", tools.ParamURL, *u)
		setIfChanged(cmd, args, "pub-id", tools.ParamPubID, *id)
		setIfChanged(cmd, args, "gid", tools.ParamGID, *gid)
		setIfChanged(cmd, args, "header-row", tools.ParamHeaderRow, *header)
		return nil
	}
}

func pageFlags(cmd *cobra.Command) func(tools.Args) error {
	f := cmd.Flags()
	limit := f.Int("limit", tools.DefaultLimit, "maximum rows to return")
	offset := f.Int("offset", 0, "rows to skip")

	return func(args tools.Args) error {
		setIfChanged(cmd, args, "limit", tools.ParamLimit, *limit)
		setIfChanged(cmd, args, "offset", tools.ParamOffset, *offset)
		return nil
	}
}

func filterSelectFlags(cmd *cobra.Command) func(tools.Args) error {
	f := cmd.Flags()
	filters := f.String("filters", "", `JSON filter list, e.g. '[{"column":"age","op":">","value":30}]'`)
	sel := f.StringSlice("select", nil, "columns to return, in order")

	return func(args tools.Args) error {
		if cmd.Flags().Changed("filters") {
			v, err := decodeJSONFlag("filters", *filters)
			if err != nil {
				return err
			}
			args[tools.ParamFilters] = v
		}
		setIfChanged(cmd, args, "select", tools.ParamSelect, *sel)
		return nil
	}
}

func queryFlags(cmd *cobra.Command) func(tools.Args) error {
	page := pageFlags(cmd)
	fs := filterSelectFlags(cmd)
	f := cmd.Flags()
	sortKeys := f.StringSlice("sort", nil, "sort keys as column[:asc|desc], first is primary")
	ci := f.Bool("case-insensitive", true, "fold case when comparing text")

	return func(args tools.Args) error {
		if err := page(args); err != nil {
			return err
		}
		if err := fs(args); err != nil {
			return err
		}
		if cmd.Flags().Changed("sort") {
			args[tools.ParamSort] = parseSortFlag(*sortKeys)
		}
		setIfChanged(cmd, args, "case-insensitive", tools.ParamCaseInsensitive, *ci)
		return nil
	}
}

func exportFlags(cmd *cobra.Command) func(tools.Args) error {
	fs := filterSelectFlags(cmd)
	f := cmd.Flags()
	format := f.String("format", tools.DefaultFormat, "csv or json")
	noHeader := f.Bool("no-header", false, "omit the CSV header line")

	return func(args tools.Args) error {
		if err := fs(args); err != nil {
			return err
		}
		setIfChanged(cmd, args, "format", tools.ParamFormat, *format)
		if *noHeader {
			args[tools.ParamIncludeHeader] = false
		}
		return nil
	}
}

// setIfChanged copies a flag into args only when the user set it, so the
// tool applies its own defaults otherwise.
func setIfChanged(cmd *cobra.Command, args tools.Args, flag, param string, v any) {
	if cmd.Flags().Changed(flag) {
		args[param] = v
	}
}

func decodeJSONFlag(name, s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("--%s: invalid JSON: %w", name, err)
	}
	return v, nil
}

// parseSortFlag turns "age:desc" items into sort key objects.
func parseSortFlag(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		col, dir, _ := strings.Cut(item, ":")
		key := map[string]any{"column": strings.TrimSpace(col)}
		if dir = strings.TrimSpace(dir); dir != "" {
			key["direction"] = dir
		}
		out = append(out, key)
	}
	return out
}
