// Command recordctl inspects and edits records of the types declared in
// YAML definition files.
//
//	recordctl --dialect mysql --dsn 'user:pass@tcp(db:3306)/shop' \
//	    --schema shop.yaml get Order 42
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/load"
)

// CLI defines the command-line interface of recordctl.
type CLI struct {
	Dialect string   `default:"mysql" enum:"mysql,sqlite" env:"RECORDCTL_DIALECT" help:"Database dialect (${enum})."`
	DSN     string   `name:"dsn" required:"" env:"RECORDCTL_DSN" help:"Data source name."`
	Schema  []string `short:"s" required:"" env:"RECORDCTL_SCHEMA" help:"YAML definition files."`
	Debug   bool     `help:"Log every statement."`
	Stats   bool     `help:"Print statement statistics on exit."`

	Types    TypesCmd    `cmd:"" help:"List the declared record types."`
	Describe DescribeCmd `cmd:"" help:"Describe the fields and links of a type."`
	Get      GetCmd      `cmd:"" help:"Load a record by key."`
	Find     FindCmd     `cmd:"" help:"List records whose field equals a value."`
	Search   SearchCmd   `cmd:"" help:"List records containing a text in any field."`
	Link     LinkCmd     `cmd:"" help:"Resolve a link of a record."`
	Delete   DeleteCmd   `cmd:"" help:"Delete records whose field equals any of the values."`
	Truncate TruncateCmd `cmd:"" help:"Remove every record of a type."`
}

// app is bound to the Run methods of the commands.
type app struct {
	reg *recordkit.Registry
	out io.Writer
}

// TypesCmd lists the declared types.
type TypesCmd struct{}

func (c *TypesCmd) Run(ctx context.Context, a *app) error {
	for _, name := range a.reg.Types() {
		t, err := a.reg.Type(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\n", t.Name(), t.Table())
	}
	return nil
}

// DescribeCmd prints the fields and links of a type.
type DescribeCmd struct {
	Type string `arg:"" help:"Record type."`
}

func (c *DescribeCmd) Run(ctx context.Context, a *app) error {
	t, err := a.reg.Type(c.Type)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (table %s, keys %s)\n", t.Name(), t.Table(), strings.Join(t.Keys(), ", "))
	for _, fd := range t.Fields() {
		var attrs []string
		if fd.NotNull {
			attrs = append(attrs, "not null")
		}
		if fd.Auto {
			attrs = append(attrs, "auto")
		}
		if fd.Unsigned {
			attrs = append(attrs, "unsigned")
		}
		if len(fd.Values) > 0 {
			attrs = append(attrs, "values "+strings.Join(fd.Values, "|"))
		}
		fmt.Fprintf(a.out, "  %-20s %-20s %-10s %s\n", fd.Name, fd.ExternalName(), fd.Type, strings.Join(attrs, ", "))
	}
	for _, name := range t.Links() {
		fmt.Fprintf(a.out, "  link %s\n", name)
	}
	return nil
}

// GetCmd loads one record.
type GetCmd struct {
	Type string   `arg:"" help:"Record type."`
	Keys []string `arg:"" help:"Key values, in key order."`
}

func (c *GetCmd) Run(ctx context.Context, a *app) error {
	rec, err := a.reg.Load(ctx, c.Type, anys(c.Keys)...)
	if err != nil {
		return err
	}
	return a.print(rec)
}

// FindCmd lists records by field value.
type FindCmd struct {
	Type  string `arg:"" help:"Record type."`
	Field string `arg:"" help:"Field name or alias."`
	Value string `arg:"" optional:"" help:"Value to match."`
	Null  bool   `help:"Match NULL instead of a value."`
}

func (c *FindCmd) Run(ctx context.Context, a *app) error {
	var v any = c.Value
	if c.Null {
		v = nil
	}
	recs, err := a.reg.FindBy(ctx, c.Type, c.Field, v)
	if err != nil {
		return err
	}
	return a.print(recs)
}

// SearchCmd lists records containing a text.
type SearchCmd struct {
	Type string `arg:"" help:"Record type."`
	Text string `arg:"" help:"Text to look for."`
}

func (c *SearchCmd) Run(ctx context.Context, a *app) error {
	recs, err := a.reg.Search(ctx, c.Type, c.Text)
	if err != nil {
		return err
	}
	return a.print(recs)
}

// LinkCmd resolves a link of a record.
type LinkCmd struct {
	Type string   `arg:"" help:"Record type."`
	Link string   `arg:"" help:"Link name."`
	Keys []string `arg:"" help:"Key values of the record."`
}

func (c *LinkCmd) Run(ctx context.Context, a *app) error {
	rec, err := a.reg.Load(ctx, c.Type, anys(c.Keys)...)
	if err != nil {
		return err
	}
	v, err := rec.Linked(ctx, c.Link)
	if err != nil {
		return err
	}
	return a.print(v)
}

// DeleteCmd deletes records by field value.
type DeleteCmd struct {
	Type   string   `arg:"" help:"Record type."`
	Field  string   `arg:"" help:"Field name or alias."`
	Values []string `arg:"" help:"Values to match."`
}

func (c *DeleteCmd) Run(ctx context.Context, a *app) error {
	n, err := a.reg.DeleteWhereIn(ctx, c.Type, c.Field, anys(c.Values)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d deleted\n", n)
	return nil
}

// TruncateCmd empties the table of a type.
type TruncateCmd struct {
	Type string `arg:"" help:"Record type."`
	Yes  bool   `help:"Confirm the truncation."`
}

func (c *TruncateCmd) Run(ctx context.Context, a *app) error {
	return a.reg.Truncate(ctx, c.Type, recordkit.Confirm{Confirm: c.Yes})
}

// print writes records as JSON lines keyed by external field name.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	switch x := v.(type) {
	case *recordkit.Record:
		return enc.Encode(x.Data(false))
	case []*recordkit.Record:
		for _, rec := range x {
			if err := enc.Encode(rec.Data(false)); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(v)
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// dsn completes a data source name for the dialect.
func dsn(name, source string) (string, error) {
	if name != dialect.MySQL {
		return source, nil
	}
	cfg, err := mysql.ParseDSN(source)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("recordctl"),
		kong.Description("Inspect and edit records declared in YAML definition files."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	source, err := dsn(cli.Dialect, cli.DSN)
	if err != nil {
		return err
	}
	db, err := sql.Open(cli.Dialect, source)
	if err != nil {
		return err
	}
	defer db.Close()
	stats := sql.NewStatsDriver(db, sql.WithSlowQueryLog(logger))
	var drv dialect.Driver = stats
	if cli.Debug {
		drv = sql.NewDebugDriver(drv, logger)
	}

	defs, err := load.Files(cli.Schema...)
	if err != nil {
		return err
	}
	reg := recordkit.NewRegistry(drv, recordkit.WithLogger(logger))
	if err := load.Register(reg, defs...); err != nil {
		return err
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(&app{reg: reg, out: stdout})
	if cli.Stats {
		fmt.Fprintln(stderr, stats.QueryStats().Stats())
	}
	return err
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "recordctl:", err)
		if recordkit.IsNotFound(err) || errors.Is(err, recordkit.ErrTruncateNotConfirmed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
