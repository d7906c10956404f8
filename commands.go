package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dot5enko/simple-record-grid/manager"
	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/dot5enko/simple-record-grid/source"
	"github.com/dot5enko/simple-record-grid/source/sourcetest"
	"github.com/dot5enko/simple-record-grid/tui"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

func newClient(baseURL string, timeout time.Duration) (*source.Client, error) {
	return source.New(baseURL, source.WithTimeout(timeout))
}

type viewConfig struct {
	URL     string        `flag:"-u,--url" help:"Base url of the record source" default:"http://localhost:3000"`
	Timeout time.Duration `flag:"--timeout" help:"Per request timeout, 0 waits for the source" default:"0s"`

	PageSize      int    `flag:"--page-size" help:"Records fetched per page" default:"50"`
	Overscan      int    `flag:"--overscan" help:"Rows rendered around the visible window" default:"3"`
	ResidentPages int    `flag:"--resident-pages" help:"Pages kept unpacked in memory, 0 keeps all" default:"0"`
	LogFile       string `flag:"--log" help:"Write debug logs to this file instead of discarding them" default:"-"`
}

// rows drawn while scrolling are packed once the view rests this long
const viewCompactDelay = 250 * time.Millisecond

// a log file gets everything, payload dumps of a misbehaving source included
func (cfg viewConfig) logLevel() slog.Level {
	if cfg.LogFile == "" {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

type dumpConfig struct {
	URL     string        `flag:"-u,--url" help:"Base url of the record source" default:"http://localhost:3000"`
	Timeout time.Duration `flag:"--timeout" help:"Per request timeout, 0 waits for the source" default:"0s"`

	PageSize int  `flag:"--page-size" help:"Records fetched per page" default:"50"`
	Pages    int  `flag:"--pages" help:"Stop after this many pages, 0 reads everything" default:"0"`
	Verbose  bool `flag:"-v,--verbose" help:"Log every fetched page" default:"false"`
}

type addConfig struct {
	URL     string        `flag:"-u,--url" help:"Base url of the record source" default:"http://localhost:3000"`
	Timeout time.Duration `flag:"--timeout" help:"Per request timeout, 0 waits for the source" default:"0s"`

	Verbose bool `flag:"-v,--verbose" help:"Log the header change" default:"false"`
}

type serveConfig struct {
	Addr    string `flag:"--addr" help:"Listen address" default:"localhost:3000"`
	Records int    `flag:"--records" help:"Generated records" default:"1000"`
}

func runView(ctx context.Context, cfg viewConfig) error {

	logOut := io.Discard

	if cfg.LogFile != "" {
		file, openErr := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			return fmt.Errorf("unable to open log file: %s", openErr.Error())
		}
		defer file.Close()
		logOut = file
	}

	setupLogging(logOut, cfg.logLevel())

	client, clientErr := newClient(cfg.URL, cfg.Timeout)
	if clientErr != nil {
		return clientErr
	}

	mgr := manager.New(client, manager.ManagerConfig{
		PageSize:         cfg.PageSize,
		Overscan:         cfg.Overscan,
		MaxResidentPages: cfg.ResidentPages,
		CompactDelay:     viewCompactDelay,
	})
	defer mgr.Close()

	return tui.Run(ctx, mgr, cfg.URL)
}

// runDump reads pages in order and prints them as one table.
func runDump(ctx context.Context, cfg dumpConfig, w io.Writer) error {

	client, clientErr := newClient(cfg.URL, cfg.Timeout)
	if clientErr != nil {
		return clientErr
	}

	mgr := manager.New(client, manager.ManagerConfig{PageSize: cfg.PageSize})

	started := time.Now()
	loadErr := mgr.LoadAll(ctx, cfg.Pages)

	rows, rowsErr := mgr.Rows()
	if rowsErr != nil {
		return rowsErr
	}

	columns := dumpColumns(mgr.Header(), rows)

	printTable(w, columns, rows)

	stats := mgr.Stats()

	if loadErr != nil {
		color.New(color.FgYellow).Fprintf(w, "%d rows from %d pages before the failure\n", stats.Rows, stats.Pages)
		return loadErr
	}

	summary := fmt.Sprintf("%d rows, %d pages in %s", stats.Rows, stats.Pages, time.Since(started).Round(time.Millisecond))
	if mgr.HasMore() {
		summary += ", more available"
	}

	color.New(color.FgGreen).Fprintln(w, summary)

	return nil
}

// dumpColumns is the header followed by keys only some records carry, sorted.
func dumpColumns(header schema.Header, rows []schema.Record) []string {

	extra := map[string]struct{}{}

	for _, row := range rows {
		for k := range row {
			if !header.Contains(k) {
				extra[k] = struct{}{}
			}
		}
	}

	return append(slices.Clone(header), slices.Sorted(maps.Keys(extra))...)
}

func printTable(w io.Writer, columns []string, rows []schema.Record) {

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(row.Get(col)))
		}
	}

	cells := make([]string, len(columns))

	for i, col := range columns {
		cells[i] = runewidth.FillRight(col, widths[i])
	}
	color.New(color.Bold).Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i, col := range columns {
			cells[i] = runewidth.FillRight(row.Get(col), widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func runAdd(ctx context.Context, cfg addConfig, args []string) error {

	record, custom, parseErr := parseFields(args)
	if parseErr != nil {
		return parseErr
	}

	client, clientErr := newClient(cfg.URL, cfg.Timeout)
	if clientErr != nil {
		return clientErr
	}

	mgr := manager.New(client, manager.ManagerConfig{})

	if addErr := mgr.AddRecord(ctx, record, custom); addErr != nil {
		return addErr
	}

	color.Green("record added")
	return nil
}

// parseFields reads `name=value` pairs; a leading + marks a custom field.
func parseFields(args []string) (schema.Record, []schema.CustomField, error) {

	record := schema.Record{}
	var custom []schema.CustomField

	for _, arg := range args {

		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("expected name=value, got %q", arg)
		}

		if strings.HasPrefix(name, "+") {
			custom = append(custom, schema.CustomField{Name: strings.TrimPrefix(name, "+"), Value: value})
			continue
		}

		if name == "" {
			return nil, nil, fmt.Errorf("empty field name in %q", arg)
		}

		record[name] = value
	}

	if len(record) == 0 && len(custom) == 0 {
		return nil, nil, fmt.Errorf("no fields given")
	}

	return record, custom, nil
}

// runServe starts the in-memory demo backend.
func runServe(cfg serveConfig) error {

	backend := sourcetest.NewBackend(sourcetest.Generate(cfg.Records))

	slog.Info("serving demo records", "addr", cfg.Addr, "records", cfg.Records)
	color.Green("record source listening on http://%s", cfg.Addr)

	return http.ListenAndServe(cfg.Addr, backend)
}
