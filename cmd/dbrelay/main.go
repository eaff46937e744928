package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-data-exporter/dbrelay"
)

type cmdGlobal struct {
	logger *logrus.Logger

	flagConfig         string
	flagRelay          string
	flagURL            string
	flagServer         string
	flagDatabase       string
	flagUser           string
	flagPassword       string
	flagConnectionName string
	flagKeepalive      int
	flagRetries        int
	flagLogVerbose     bool
	flagLogDebug       bool
}

// PreRun runs immediately prior to the main Run function.
func (c *cmdGlobal) PreRun(cmd *cobra.Command, args []string) error {
	c.logger.SetOutput(cmd.ErrOrStderr())
	switch {
	case c.flagLogDebug:
		c.logger.SetLevel(logrus.DebugLevel)
	case c.flagLogVerbose:
		c.logger.SetLevel(logrus.InfoLevel)
	default:
		c.logger.SetLevel(logrus.WarnLevel)
	}
	return nil
}

// CheckArgs validates the number of arguments passed to the function and shows the help if incorrect.
func (c *cmdGlobal) CheckArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}

// connect resolves the relay from the config file and flags, then opens a
// connection. Flags given on the command line win over the remote.
func (c *cmdGlobal) connect(ctx context.Context, cmd *cobra.Command) (*dbrelay.Connection, error) {
	conf, err := LoadConfig(c.flagConfig)
	if err != nil {
		return nil, err
	}

	name := c.flagRelay
	if name == "" {
		name = conf.DefaultRemote
	}
	var remote Remote
	if name != "" {
		var ok bool
		remote, ok = conf.Remotes[name]
		if !ok && c.flagRelay != "" {
			return nil, fmt.Errorf("Remote %q doesn't exist", name)
		}
	}
	remote = c.applyFlags(cmd, remote)
	if remote.Password == "" {
		remote.Password = os.Getenv("DBRELAY_PASSWORD")
	}
	if remote.URL == "" {
		return nil, fmt.Errorf("No relay URL: pass --url or add a remote")
	}

	c.logger.WithFields(logrus.Fields{
		"remote":   name,
		"url":      remote.URL,
		"server":   remote.Server,
		"database": remote.Database,
	}).Info("Connecting")

	return dbrelay.Connect(ctx, remote.URL, remote.params(),
		dbrelay.WithLogger(c.logger),
		dbrelay.WithRetries(c.flagRetries),
		dbrelay.WithUserAgent("dbrelay-cli/"+dbrelay.Version),
	)
}

// applyFlags overrides the remote's fields with the connection flags that
// were set.
func (c *cmdGlobal) applyFlags(cmd *cobra.Command, r Remote) Remote {
	flags := cmd.Flags()
	if flags.Changed("url") {
		r.URL = c.flagURL
	}
	if flags.Changed("server") {
		r.Server = c.flagServer
	}
	if flags.Changed("database") {
		r.Database = c.flagDatabase
	}
	if flags.Changed("user") {
		r.User = c.flagUser
	}
	if flags.Changed("password") {
		r.Password = c.flagPassword
	}
	if flags.Changed("connection-name") {
		r.ConnectionName = c.flagConnectionName
	}
	if flags.Changed("keepalive") {
		r.Keepalive = c.flagKeepalive
	}
	return r
}

func newApp() *cobra.Command {
	app := &cobra.Command{}
	app.Use = "dbrelay"
	app.Short = "Run SQL through a dbrelay server"
	app.Long = `Description:
  Run SQL through a dbrelay server

  dbrelay forwards statements over HTTP to a database server and answers
  in JSON. This tool sends statements, prints their result sets and keeps
  a list of named relays in its configuration file.
`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Global flags.
	globalCmd := cmdGlobal{logger: logrus.New()}
	flags := app.PersistentFlags()
	flags.StringVar(&globalCmd.flagConfig, "config", "", "Path to the configuration file")
	flags.StringVarP(&globalCmd.flagRelay, "relay", "r", "", "Name of the remote relay to use")
	flags.StringVar(&globalCmd.flagURL, "url", "", "Relay endpoint URL")
	flags.StringVarP(&globalCmd.flagServer, "server", "S", "", "Database server the relay connects to")
	flags.StringVarP(&globalCmd.flagDatabase, "database", "D", "", "Database name")
	flags.StringVarP(&globalCmd.flagUser, "user", "U", "", "Database user")
	flags.StringVarP(&globalCmd.flagPassword, "password", "P", "", "Database password (or DBRELAY_PASSWORD)")
	flags.StringVar(&globalCmd.flagConnectionName, "connection-name", "", "Name tagging the statements in the relay's logs")
	flags.IntVar(&globalCmd.flagKeepalive, "keepalive", 0, "Ask the relay to keep the database connection open")
	flags.IntVar(&globalCmd.flagRetries, "retries", 0, "Retry network failures and 5xx answers this many times")
	flags.BoolVarP(&globalCmd.flagLogVerbose, "verbose", "v", false, "Show all information messages")
	flags.BoolVarP(&globalCmd.flagLogDebug, "debug", "d", false, "Show debug messages")
	app.PersistentPreRunE = globalCmd.PreRun

	// Version handling.
	app.SetVersionTemplate("{{.Version}}\n")
	app.Version = dbrelay.Version

	// query sub-command.
	queryCmd := cmdQuery{global: &globalCmd}
	app.AddCommand(queryCmd.Command())

	// ping sub-command.
	pingCmd := cmdPing{global: &globalCmd}
	app.AddCommand(pingCmd.Command())

	// remote sub-command.
	remoteCmd := cmdRemote{global: &globalCmd}
	app.AddCommand(remoteCmd.Command())

	return app
}

func main() {
	err := newApp().Execute()
	if err != nil {
		os.Exit(1)
	}
}
