package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	api "heredity/pkg/heredity"
)

func newCreateCommand(flags *globalFlags) *cobra.Command {
	var (
		configPath string
		length     int
		random     bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a genome from a config file or flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := defaultConfig()
			if configPath != "" {
				loaded, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
				flags.mergeConfig(cmd, cfg)
			}
			if cmd.Flags().Changed("length") {
				cfg.Length = length
			}
			if cmd.Flags().Changed("random") {
				cfg.Random = random
			}

			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			req := cfg.createRequest()
			req.Seed = flags.seed
			info, err := client.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "genome config file (.json, .toml, .yaml)")
	cmd.Flags().IntVar(&length, "length", 0, "parameter count when the config gives no parameters")
	cmd.Flags().BoolVar(&random, "random", false, "draw parameters uniformly from [0,1)")
	return cmd
}

func newEvolveCommand(flags *globalFlags) *cobra.Command {
	var (
		configPath  string
		generations int
		operator    string
	)
	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Create a genome and apply an operator for several generations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if generations < 0 {
				return fmt.Errorf("generations must be >= 0")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			flags.mergeConfig(cmd, cfg)

			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			req := cfg.createRequest()
			req.Seed = flags.seed
			info, err := client.Create(ctx, req)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)

			settings := cfg.variation()
			for i := 0; i < generations; i++ {
				info, err = client.Mutate(ctx, api.MutateRequest{ID: info.ID, Operator: operator, Variation: &settings})
				if err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), info)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "genome config file (.json, .toml, .yaml)")
	cmd.Flags().IntVar(&generations, "generations", 10, "number of mutations to apply")
	cmd.Flags().StringVar(&operator, "operator", "gaussian_variation", "operator: gaussian_variation|random_restart")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newMutateCommand(flags *globalFlags) *cobra.Command {
	var (
		operator string
		settings = api.DefaultVariation()
	)
	cmd := &cobra.Command{
		Use:   "mutate <genome-id>",
		Short: "Derive a new genome with a named operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Mutate(cmd.Context(), api.MutateRequest{ID: args[0], Operator: operator, Variation: &settings})
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "gaussian_variation", "operator: gaussian_variation|random_restart")
	cmd.Flags().Float64Var(&settings.Rate, "rate", settings.Rate, "per-parameter mutation probability")
	cmd.Flags().Float64Var(&settings.Intensity, "intensity", settings.Intensity, "standard deviation of the gaussian delta")
	cmd.Flags().Float64Var(&settings.Min, "min", settings.Min, "lower parameter bound")
	cmd.Flags().Float64Var(&settings.Max, "max", settings.Max, "upper parameter bound")
	return cmd
}

func newBreedCommand(flags *globalFlags) *cobra.Command {
	var magnitude float64
	cmd := &cobra.Command{
		Use:   "breed <first-id> <second-id>",
		Short: "Perturb the first genome toward the second",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Breed(cmd.Context(), api.BreedRequest{FirstID: args[0], SecondID: args[1], Magnitude: magnitude})
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().Float64Var(&magnitude, "magnitude", 0.1, "perturbation magnitude")
	return cmd
}

func newDescribeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <genome-id>",
		Short: "Print genotype statistics and the phenotype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			desc, err := client.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printInfo(out, desc.GenomeInfo)
			fmt.Fprintf(out, "parameters mean=%.6f std=%.6f\n", desc.ParameterMean, desc.ParameterStdDev)
			fmt.Fprintf(out, "phenotype mean=%.6f std=%.6f\n", desc.PhenotypeMean, desc.PhenotypeStdDev)
			for ci, chromosome := range desc.Phenotype {
				for gi, gene := range chromosome {
					values := make([]string, len(gene))
					for i, v := range gene {
						values[i] = fmt.Sprintf("%.6f", v)
					}
					fmt.Fprintf(out, "chromosome=%d gene=%d values=[%s]\n", ci, gi, strings.Join(values, " "))
				}
			}
			return nil
		},
	}
}

func newExportCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <genome-id>",
		Short: "Print the Base64 parameter-record stream of a genome's phenotype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			encoded, err := client.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

func newDecodeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <stream>",
		Short: "Print the records of a Base64 parameter-record stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			pg, err := client.Decode(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records=%s\n", humanize.Comma(int64(pg.Len())))
			for _, r := range pg.Records() {
				fmt.Fprintf(out, "%d %d %d %v\n", r.Chromosome, r.Gene, r.Factor, r.Value)
			}
			return nil
		},
	}
}

func newLineageCommand(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "lineage <genome-id>",
		Short: "Print a genome's ancestry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Lineage(cmd.Context(), api.LineageRequest{ID: args[0], Limit: limit})
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "genome=%s generation=%d operation=%s parents=%s fingerprint=%s\n",
					item.GenomeID, item.Generation, item.Operation, strings.Join(item.ParentIDs, ","), item.Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries; 0 prints all")
	return cmd
}

func newListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored genome ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ids, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <genome-id>",
		Short: "Delete a stored genome and its lineage record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Delete(cmd.Context(), args[0])
		},
	}
}

func newRenderCommand(flags *globalFlags) *cobra.Command {
	var (
		outPath    string
		duration   time.Duration
		sampleRate int
	)
	cmd := &cobra.Command{
		Use:   "render <genome-id>",
		Short: "Render every four-factor gene as a voice into a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Render(cmd.Context(), api.RenderRequest{
				ID:         args[0],
				Path:       outPath,
				Duration:   duration,
				SampleRate: sampleRate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered voices=%d size=%s path=%s\n",
				summary.Voices, humanize.Bytes(uint64(summary.Bytes)), summary.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "genome.wav", "output WAV path")
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "rendered length")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 44100, "sample rate in Hz")
	return cmd
}

func printInfo(w io.Writer, info api.GenomeInfo) {
	fmt.Fprintf(w, "genome=%s generation=%d parameters=%s factors=%s fingerprint=%s\n",
		info.ID, info.Generation, humanize.Comma(int64(info.ParameterCount)), humanize.Comma(int64(info.FactorCount)), info.Fingerprint)
}
