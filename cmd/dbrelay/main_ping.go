package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type cmdPing struct {
	global *cmdGlobal
}

func (c *cmdPing) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "ping"
	cmd.Short = "Check the relay answers"
	cmd.Long = `Description:
  Check the relay answers

  Connects with the configured parameters, which runs a canary statement
  through the relay, and reports how long it took.
`
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdPing) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	start := time.Now()
	conn, err := c.global.connect(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Relay %s is reachable (%s)\n", conn.URL(), time.Since(start).Round(time.Millisecond))
	return err
}
