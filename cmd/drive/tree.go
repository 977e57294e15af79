package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paperdrive/pkg/eventlog"
	"paperdrive/pkg/tree"
)

func newTreeCmd() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree [node]",
		Short: "Print the drive tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDrive(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			var start tree.Node
			if len(args) == 1 {
				start, err = resolveNode(d, args[0])
				if err != nil {
					return err
				}
			} else {
				var ok bool
				start, ok = tree.Root(d.log)
				if !ok {
					return fmt.Errorf("drive is empty")
				}
			}
			printTree(start, 0, showIDs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "print node ids")
	return cmd
}

func printTree(n tree.Node, depth int, showIDs bool) {
	name := n.Name()
	if name == "" {
		name = "(unnamed)"
	}
	kind, _ := n.Kind()
	line := strings.Repeat("  ", depth) + name + "  [" + string(kind) + "]"
	if showIDs {
		line += "  " + string(n.ID())
	}
	fmt.Println(line)
	for _, child := range n.Children() {
		printTree(child, depth+1, showIDs)
	}
}

// resolveNode finds a node by exact ID, by unique ID prefix, or by
// unique name.
func resolveNode(d *drive, arg string) (tree.Node, error) {
	if arg == "" {
		return tree.Node{}, fmt.Errorf("empty node reference")
	}
	if n, ok := tree.Get(d.log, eventlog.NodeID(arg)); ok {
		return n, nil
	}

	var matches []tree.Node
	for _, e := range d.log.Events() {
		if e.Type != eventlog.EventNodeCreated {
			continue
		}
		n, ok := tree.Get(d.log, e.Node)
		if !ok {
			continue
		}
		if strings.HasPrefix(string(e.Node), arg) || n.Name() == arg {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return tree.Node{}, fmt.Errorf("no node matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return tree.Node{}, fmt.Errorf("%q is ambiguous (%d matches)", arg, len(matches))
	}
}

// resolveParent is resolveNode defaulting to the drive root.
func resolveParent(d *drive, arg string) (tree.Node, error) {
	if arg == "" {
		root, ok := tree.Root(d.log)
		if !ok {
			return tree.Node{}, fmt.Errorf("drive is empty")
		}
		return root, nil
	}
	return resolveNode(d, arg)
}
