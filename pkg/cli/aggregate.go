package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/goldenoak/threadline/pkg/cli/config"
	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/engine"
	"github.com/goldenoak/threadline/pkg/utils/safe"
)

func cmdAggregate() *cli.Command {
	var input string
	var format string
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Raw records JSON file (- for stdin)",
			Value:       "-",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (json or summary)",
			Value:       "summary",
			Destination: &format,
		},
	}
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:    "aggregate",
		Aliases: []string{"agg"},
		Usage:   "Aggregate raw interaction records from a file and print the grouped view",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			raws, err := readRecords(ctx, input)
			if err != nil {
				return err
			}

			engineOpts, err := engineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure engine")
			}

			groups := engine.Aggregate(raws, engineOpts...)

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(groups); err != nil {
					return goerr.Wrap(err, "failed to encode output")
				}
				return nil
			case "summary":
				printSummary(os.Stdout, groups)
				return nil
			default:
				return goerr.New("invalid output format", goerr.V("format", format))
			}
		},
	}
}

func readRecords(ctx context.Context, input string) ([]map[string]any, error) {
	var r io.Reader
	if input == "-" {
		r = os.Stdin
	} else {
		// #nosec G304 - path is expected to be provided by CLI argument
		f, err := os.Open(input)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open input file", goerr.V("path", input))
		}
		defer safe.Close(ctx, f)
		r = f
	}

	var raws []map[string]any
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, goerr.Wrap(err, "failed to decode input as a JSON array of records")
	}
	return raws, nil
}

func printSummary(w io.Writer, groups []*model.CustomerGroup) {
	customerColor := color.New(color.FgCyan, color.Bold)
	caseColor := color.New(color.FgYellow)
	dimColor := color.New(color.Faint)

	if len(groups) == 0 {
		fmt.Fprintln(w, "no customers")
		return
	}

	for _, group := range groups {
		customerColor.Fprintf(w, "%s", group.CustomerLabel)
		dimColor.Fprintf(w, " (%s)", group.CustomerKey)
		fmt.Fprintf(w, "  %d conversations, %d messages, last activity %s\n",
			group.ConversationCount,
			group.MessageCount,
			group.LastActivityAt.Format("2006-01-02 15:04"),
		)

		for _, c := range group.Cases {
			caseColor.Fprintf(w, "  %s", c.CaseTitle)
			fmt.Fprintf(w, " [%d conv]", c.ConversationCount)
			if c.Preview != "" {
				dimColor.Fprintf(w, "  %s", c.Preview)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
}
