package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	confdispatch "github.com/reoring/confdispatch"
	"github.com/reoring/confdispatch/tree"
)

func newCheckCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Parse configuration files and print the resolved tree as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				out := cmd.OutOrStdout()
				if quiet {
					out = io.Discard
				}
				if err := a.check(out, path); err != nil {
					a.logger.Error("configuration rejected", "file", path, "err", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configuration(s) rejected", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report errors and warnings")
	return cmd
}

// check parses path, includes resolved within its directory, and writes
// the resulting tree to w.
func (a *app) check(w io.Writer, path string) error {
	root, warnings, err := a.parse(path)
	if err != nil {
		return err
	}
	for _, it := range warnings {
		a.logger.Warn(it.Message, "file", path, "code", it.Code, "name", it.Name, "location", it.Location.String())
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (a *app) parse(path string) (*tree.Node, confdispatch.Issues, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("configuration %s does not exist", path)
		}
		return nil, nil, err
	}
	b := tree.New()
	h := confdispatch.NewHolder(b)
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := a.dispatcher.ParseFile(os.DirFS(dir), name, h); err != nil {
		return nil, h.Warnings(), err
	}
	a.logger.Debug("configuration parsed", "file", path, "session", h.ID(), "warnings", len(h.Warnings()))
	return b.Root(), h.Warnings(), nil
}
