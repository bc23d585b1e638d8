package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"heredity/internal/storage"
	api "heredity/pkg/heredity"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	return runWithIO(ctx, args, os.Stdout, os.Stderr)
}

func runWithIO(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// globalFlags are shared by every subcommand. Values from a config file fill
// any flag left unset on the command line.
type globalFlags struct {
	store       string
	dbPath      string
	logLevel    string
	seed        int64
	parallelism int
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "heredityctl",
		Short:         "Create, evolve and inspect projected genomes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.store, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	pf.StringVar(&flags.dbPath, "db-path", "heredity.db", "sqlite database path")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level")
	pf.Int64Var(&flags.seed, "seed", 0, "seed for random draws; 0 seeds from the clock")
	pf.IntVar(&flags.parallelism, "parallelism", 1, "genes refreshed concurrently")

	root.AddCommand(
		newCreateCommand(flags),
		newEvolveCommand(flags),
		newMutateCommand(flags),
		newBreedCommand(flags),
		newDescribeCommand(flags),
		newExportCommand(flags),
		newDecodeCommand(flags),
		newLineageCommand(flags),
		newListCommand(flags),
		newDeleteCommand(flags),
		newRenderCommand(flags),
	)
	return root
}

// mergeConfig copies config-file values into flags the user did not set.
func (f *globalFlags) mergeConfig(cmd *cobra.Command, cfg genomeConfig) {
	changed := cmd.Flags().Changed
	if cfg.Store != "" && !changed("store") {
		f.store = cfg.Store
	}
	if cfg.DBPath != "" && !changed("db-path") {
		f.dbPath = cfg.DBPath
	}
	if cfg.Seed != 0 && !changed("seed") {
		f.seed = cfg.Seed
	}
	if cfg.Parallelism != 0 && !changed("parallelism") {
		f.parallelism = cfg.Parallelism
	}
}

func (f *globalFlags) client(cmd *cobra.Command) (*api.Client, error) {
	level, err := logrus.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)

	client, err := api.New(api.Options{
		StoreKind:   f.store,
		DBPath:      f.dbPath,
		Logger:      logger,
		Parallelism: f.parallelism,
		Seed:        f.seed,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(cmd.Context()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
