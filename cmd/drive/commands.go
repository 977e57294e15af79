package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paperdrive/pkg/eventlog"
	"paperdrive/pkg/tree"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local drive (root folder) if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			root, ok := tree.Root(d.log)
			if !ok {
				return fmt.Errorf("drive has no root after init")
			}
			fmt.Printf("%s  %s\n", root.ID(), root.Name())
			return nil
		},
	}
}

func newNewCmd() *cobra.Command {
	var kind string
	var parentArg string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := eventlog.NodeKind(kind)
			if !k.Valid() {
				return fmt.Errorf("unknown kind %q (folder, file, text, outline)", kind)
			}
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			parent, err := resolveParent(d, parentArg)
			if err != nil {
				return err
			}
			node, err := tree.Create(d.log, k, &parent)
			if err != nil {
				return err
			}
			if err := node.SetName(args[0]); err != nil {
				return err
			}
			fmt.Println(node.ID())
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "outline", "node kind: folder, file, text or outline")
	cmd.Flags().StringVarP(&parentArg, "parent", "p", "", "parent node (id or name; default drive root)")
	return cmd
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <node> <before|after|inside> <target>",
		Short: "Move a node relative to another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			node, err := resolveNode(d, args[0])
			if err != nil {
				return err
			}
			target, err := resolveNode(d, args[2])
			if err != nil {
				return err
			}
			switch args[1] {
			case "before":
				return node.MoveBefore(target)
			case "after":
				return node.MoveAfter(target)
			case "inside":
				return node.MoveInside(target)
			default:
				return fmt.Errorf("unknown placement %q (before, after, inside)", args[1])
			}
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <node> <field> <text>",
		Short: "Set a text field (name, note, text, ...)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			node, err := resolveNode(d, args[0])
			if err != nil {
				return err
			}
			return node.SetField(args[1], args[2])
		},
	}
}

func newCatCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "cat <node>",
		Short: "Print a node's text field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			node, err := resolveNode(d, args[0])
			if err != nil {
				return err
			}
			fmt.Println(node.Field(field))
			return nil
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "text", "field to print")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node>",
		Short: "Delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			node, err := resolveNode(d, args[0])
			if err != nil {
				return err
			}
			if root, ok := tree.Root(d.log); ok && root.ID() == node.ID() {
				return fmt.Errorf("refusing to delete the drive root")
			}
			return node.Delete()
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push local events to the remote and pull new ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteStore() == nil {
				return fmt.Errorf("remote: not configured (set remote_url or --remote)")
			}
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			before := d.log.Len()
			if err := d.replica.SyncOnce(cmd.Context()); err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Printf("synced: %d events (%d pulled)\n", d.log.Len(), d.log.Len()-before)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show replica status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			localCount, err := d.store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("events:  %d in memory, %d on disk\n", d.log.Len(), localCount)
			fmt.Printf("ready:   %v\n", d.replica.Ready())

			if remote := remoteStore(); remote != nil {
				n, err := remote.Count(cmd.Context())
				if err != nil {
					fmt.Println("remote:  offline")
				} else {
					fmt.Printf("remote:  online, %d events\n", n)
				}
			} else {
				fmt.Println("remote:  not configured")
			}
			return nil
		},
	}
}

func remoteStore() eventlog.DurableLog {
	if url := viper.GetString("remote_url"); url != "" {
		return eventlog.NewHTTPStore(url)
	}
	return nil
}
