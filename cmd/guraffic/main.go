// Command guraffic views, inspects, and validates guraffic scene files.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	guraffic "github.com/jonathanharg/guraffic-park"
	"github.com/jonathanharg/guraffic-park/ebitenview"
)

type options struct {
	configPath string
	verbose    bool
	veryVerb   bool
	quiet      bool
	noReload   bool

	config guraffic.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {

	opts := &options{}

	root := &cobra.Command{
		Use:           "guraffic",
		Short:         "View and inspect scene-graph scenes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "TOML config file (defaults are used when empty)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at info level")
	flags.BoolVar(&opts.veryVerb, "vv", false, "log at debug level")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	view := &cobra.Command{
		Use:   "view <scene.yaml>",
		Short: "Open a window showing the scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), opts, args[0])
		},
	}
	view.Flags().BoolVar(&opts.noReload, "no-reload", false, "don't reload the scene when its file changes")

	tree := &cobra.Command{
		Use:   "tree <scene.yaml>",
		Short: "Print the scene's entity hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := opts.build(args[0])
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), scene)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate <scene.yaml>",
		Short: "Check that the scene file parses and builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := opts.build(args[0])
			if err != nil {
				return err
			}
			active := "none"
			if cam := scene.ActiveCamera(); cam != nil {
				active = cam.Name()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d entities, %d models, %d triangles, %d cameras, %d lights, %d behaviors; viewing through %s)\n",
				args[0], scene.Graph.Len(), len(scene.Models), triangleCount(scene), len(scene.Cameras), len(scene.Lights), len(scene.Behaviors), active)
			return nil
		},
	}

	root.AddCommand(view, tree, validate)

	return root

}

func (opts *options) setup(cmd *cobra.Command) error {

	opts.config = guraffic.DefaultConfig()

	if opts.configPath != "" {
		cfg, err := guraffic.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		opts.config = cfg
	}

	if opts.veryVerb || opts.verbose || opts.quiet {
		guraffic.UserLevel.Set(guraffic.LevelFromFlags(opts.veryVerb, opts.verbose, opts.quiet))
	} else {
		guraffic.UserLevel.Set(opts.config.LogLevel())
	}

	return nil

}

func sceneFS(file string) (fs.FS, string) {
	dir, name := filepath.Split(filepath.Clean(file))
	if dir == "" {
		dir = "."
	}
	return os.DirFS(dir), name
}

func (opts *options) build(file string) (*guraffic.Scene, error) {

	fsys, name := sceneFS(file)

	desc, err := guraffic.LoadSceneFile(fsys, name)
	if err != nil {
		return nil, err
	}

	return guraffic.BuildScene(desc, fsys, ".", opts.config)

}

func runView(ctx context.Context, opts *options, file string) error {

	scene, err := opts.build(file)
	if err != nil {
		return err
	}

	game := ebitenview.NewGame(scene, opts.config)

	if opts.config.Controls.ReloadOnChange && !opts.noReload {

		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		updates := make(chan guraffic.SceneUpdate, 1)

		go func() {
			if err := guraffic.WatchSceneFile(ctx, file, updates); err != nil {
				guraffic.Logger().Warn("not reloading scene changes", "error", err)
			}
		}()

		fsys, _ := sceneFS(file)
		game.Reloads = updates
		game.Build = func(desc *guraffic.SceneDesc) (*guraffic.Scene, error) {
			return guraffic.BuildScene(desc, fsys, ".", opts.config)
		}

	}

	return ebitenview.Run(game)

}

func triangleCount(scene *guraffic.Scene) int {
	count := 0
	for _, m := range scene.Models {
		if m.Mesh != nil {
			count += m.Mesh.TriangleCount()
		}
	}
	return count
}
