package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/mischief"
	"github.com/aretw0/mischief/pkg/adapters/fs"
	"github.com/aretw0/mischief/pkg/core"
)

var stateDiagram bool

// stateCmd prints the introspection state of the opened stores.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the internal state of the note store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openStore(context.Background(), loadConfig())

		if stateDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "store"
			config.SecondaryLabel = "Note Store"
			fmt.Println(introspection.TreeDiagram(buildStoreTree(c), config))
			return
		}

		states := map[string]any{}
		for _, comp := range []introspection.Introspectable{c.Service, c.Meta, c.Content} {
			states[comp.(introspection.Component).ComponentType()] = comp.State()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(states); err != nil {
			fatal("Failed to encode state", err)
		}
	},
}

type storeNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []storeNode
}

// buildStoreTree maps component state onto the status classes known to
// introspection.DefaultStyles().
func buildStoreTree(c *mischief.Components) storeNode {
	svc, _ := c.Service.State().(core.ServiceState)
	meta, _ := c.Meta.State().(fs.MetaStoreState)
	content, _ := c.Content.State().(fs.ContentStoreState)

	watcherStatus := "suspended"
	if meta.WatcherActive {
		watcherStatus = "running"
	}

	return storeNode{
		Name:   "Service",
		Status: "running",
		Metadata: map[string]string{
			"admin":   svc.Administrator,
			"created": fmt.Sprintf("%d", svc.NotesCreated),
		},
		Children: []storeNode{
			{
				Name:   "Metadata",
				Status: "running",
				Metadata: map[string]string{
					"path":      meta.Path,
					"read_only": fmt.Sprintf("%t", meta.ReadOnly),
				},
				Children: []storeNode{
					{Name: "Watcher", Status: watcherStatus},
				},
			},
			{
				Name:   "Content",
				Status: "running",
				Metadata: map[string]string{
					"path": content.Path,
				},
			},
			{
				Name:   "Cipher",
				Status: "running",
				Metadata: map[string]string{
					"type": c.Sealer.ComponentType(),
				},
			},
		},
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().BoolVar(&stateDiagram, "diagram", false, "Print a Mermaid diagram instead of JSON")
}
