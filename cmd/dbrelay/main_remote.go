package main

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type cmdRemote struct {
	global *cmdGlobal
}

func (c *cmdRemote) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "remote"
	cmd.Short = "Manage the list of remote relays"
	cmd.Long = `Description:
  Manage the list of remote relays

  Remotes are stored in $DBRELAY_CONF/config.yml, or
  ~/.config/dbrelay/config.yml when DBRELAY_CONF is not set.
`

	// Add.
	remoteAddCmd := cmdRemoteAdd{global: c.global}
	cmd.AddCommand(remoteAddCmd.Command())

	// List.
	remoteListCmd := cmdRemoteList{global: c.global}
	cmd.AddCommand(remoteListCmd.Command())

	// Remove.
	remoteRemoveCmd := cmdRemoteRemove{global: c.global}
	cmd.AddCommand(remoteRemoveCmd.Command())

	// Switch.
	remoteSwitchCmd := cmdRemoteSwitch{global: c.global}
	cmd.AddCommand(remoteSwitchCmd.Command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }
	return cmd
}

// Add.
type cmdRemoteAdd struct {
	global *cmdGlobal
}

func (c *cmdRemoteAdd) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "add <name> <url>"
	cmd.Short = "Add a new remote relay"
	cmd.Long = `Description:
  Add a new remote relay

  The connection flags (--server, --database, --user, --password,
  --connection-name, --keepalive) are stored with the remote.
  The first remote added becomes the default.
`
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdRemoteAdd) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	conf, err := LoadConfig(c.global.flagConfig)
	if err != nil {
		return err
	}

	name := args[0]
	if _, ok := conf.Remotes[name]; ok {
		return fmt.Errorf("Remote %s exists as <%s>", name, conf.Remotes[name].URL)
	}

	remote := c.global.applyFlags(cmd, Remote{})
	remote.URL = args[1]
	conf.Remotes[name] = remote
	if conf.DefaultRemote == "" {
		conf.DefaultRemote = name
	}

	return conf.SaveConfig()
}

// List.
type cmdRemoteList struct {
	global *cmdGlobal
}

func (c *cmdRemoteList) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "list"
	cmd.Aliases = []string{"ls"}
	cmd.Short = "List the available remotes"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdRemoteList) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	conf, err := LoadConfig(c.global.flagConfig)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(conf.Remotes))
	for name := range conf.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	data := [][]string{}
	for _, name := range names {
		r := conf.Remotes[name]
		if name == conf.DefaultRemote {
			name = fmt.Sprintf("%s (current)", name)
		}
		data = append(data, []string{name, r.URL, r.Server, r.Database, r.User})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"NAME", "URL", "SERVER", "DATABASE", "USER"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// Remove.
type cmdRemoteRemove struct {
	global *cmdGlobal
}

func (c *cmdRemoteRemove) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "remove <name>"
	cmd.Aliases = []string{"rm"}
	cmd.Short = "Remove remotes"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdRemoteRemove) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	conf, err := LoadConfig(c.global.flagConfig)
	if err != nil {
		return err
	}

	name := args[0]
	if _, ok := conf.Remotes[name]; !ok {
		return fmt.Errorf("Remote %s doesn't exist", name)
	}
	if conf.DefaultRemote == name {
		return fmt.Errorf("Can't remove the default remote")
	}

	delete(conf.Remotes, name)
	return conf.SaveConfig()
}

// Switch.
type cmdRemoteSwitch struct {
	global *cmdGlobal
}

func (c *cmdRemoteSwitch) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "switch <name>"
	cmd.Short = "Set the default remote"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdRemoteSwitch) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	conf, err := LoadConfig(c.global.flagConfig)
	if err != nil {
		return err
	}

	name := args[0]
	if _, ok := conf.Remotes[name]; !ok {
		return fmt.Errorf("Remote %s doesn't exist", name)
	}

	conf.DefaultRemote = name
	return conf.SaveConfig()
}
