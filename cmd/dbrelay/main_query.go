package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-data-exporter/dbrelay/codec"
	csvcodec "github.com/go-data-exporter/dbrelay/codec/csv"
	jsoncodec "github.com/go-data-exporter/dbrelay/codec/json"
	tablecodec "github.com/go-data-exporter/dbrelay/codec/table"
	xmlcodec "github.com/go-data-exporter/dbrelay/codec/xml"
	"github.com/go-data-exporter/dbrelay/export"
)

type cmdQuery struct {
	global *cmdGlobal

	flagFormat string
	flagOutput string
	flagLimit  int
	flagTypes  bool
}

func (c *cmdQuery) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "query [flags] <sql|->"
	cmd.Short = "Execute a SQL statement and print its result sets"
	cmd.Long = `Description:
  Execute a SQL statement and print its result sets

  If <sql> is the special value "-", then the statement is read from
  standard input.

  Every result set the statement produces is printed in turn.
`
	cmd.Example = `  dbrelay query --relay prod "select name, total from orders"
  dbrelay query --format csv --output orders.csv - < orders.sql`
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", "table", "Output format (table, csv, json, ndjson or xml)")
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "", "Write to this file instead of standard output")
	cmd.Flags().IntVar(&c.flagLimit, "limit", -1, "Maximum number of rows printed per result set")
	cmd.Flags().BoolVar(&c.flagTypes, "types", false, "Show column types in table headers")
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdQuery) codec() (codec.Codec, export.Separator, error) {
	switch c.flagFormat {
	case "table":
		return codec.Table(tablecodec.WithLimit(c.flagLimit), tablecodec.WithTypes(c.flagTypes)), export.QueryHeader, nil
	case "csv":
		return codec.CSV(csvcodec.WithLimit(c.flagLimit)), blankLine, nil
	case "json":
		return codec.JSON(jsoncodec.WithLimit(c.flagLimit)), nil, nil
	case "ndjson":
		return codec.JSON(jsoncodec.WithLimit(c.flagLimit), jsoncodec.WithNewlineDelimited(true)), nil, nil
	case "xml":
		return codec.XML(xmlcodec.WithLimit(c.flagLimit)), nil, nil
	}
	return nil, nil, fmt.Errorf("Invalid value %q for flag \"--format\"", c.flagFormat)
}

// blankLine separates CSV result sets.
func blankLine(w io.Writer, index int) error {
	if index == 0 {
		return nil
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (c *cmdQuery) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	query := args[0]
	if query == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("Failed to read from stdin: %w", err)
		}
		query = string(data)
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("Empty statement")
	}

	enc, sep, err := c.codec()
	if err != nil {
		return err
	}

	conn, err := c.global.connect(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	cur, err := conn.Cursor()
	if err != nil {
		return err
	}
	defer cur.Close()

	err = cur.Execute(cmd.Context(), query, nil)
	if err != nil {
		return err
	}

	if cur.ResultSetIndex() < 0 {
		_, err = fmt.Fprintln(cmd.ErrOrStderr(), "Statement executed, no result set")
		return err
	}

	out := cmd.OutOrStdout()
	if c.flagOutput != "" {
		f, err := os.Create(c.flagOutput)
		if err != nil {
			return fmt.Errorf("Failed to create output file: %w", err)
		}
		defer f.Close()
		out = f

		err = export.WriteResultSets(cur, enc, out, sep)
		if err != nil {
			return err
		}
		return f.Close()
	}

	return export.WriteResultSets(cur, enc, out, sep)
}
