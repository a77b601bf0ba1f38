package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Options collects persistent and per-command flag values.
type Options struct {
	ConfigPath string
	LogLevel   string
	Seed       int64
	ModelID    string
	Layers     int
	Stages     int
	LoadDelay  int
	Output     string
	Metrics    bool
	Greedy     bool

	// generate
	Prompt    string
	MaxTokens int
	RequestID string

	// infer
	Stage  int
	SeqLen int
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmdWith(&Options{
		ConfigPath: envStr(envConfig, ""),
		LogLevel:   envStr(envLogLevel, ""),
		Seed:       envInt64(envSeed, 0),
	}, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// buildRootCmdWith constructs the command tree bound to opts. Diagnostics go to logw.
func buildRootCmdWith(opts *Options, logw io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "shardsim",
		Short:         "Dummy sharded inference engine for exercising orchestration code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (.yaml|.yml|.json|.toml); defaults SHARDSIM_CONFIG or ./shardsim.yaml")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug|info|warn|error (defaults SHARDSIM_LOG_LEVEL or info)")
	pf.Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed; 0 seeds from the clock")
	pf.StringVar(&opts.ModelID, "model", "", "Model id used for shard descriptors")
	pf.IntVar(&opts.Layers, "layers", 0, "Number of model layers")
	pf.IntVar(&opts.Stages, "stages", 0, "Number of pipeline stages (one engine each)")
	pf.IntVar(&opts.LoadDelay, "load-delay-ms", 0, "Simulated shard load delay in ms (negative disables)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "Output format: text|json|yaml")
	pf.BoolVar(&opts.Metrics, "metrics", false, "Print engine metrics after the command")
	pf.BoolVar(&opts.Greedy, "greedy", false, "Sample the argmax of the logits instead of a random token")

	generateCmd := &cobra.Command{
		Use:     "generate [prompt]",
		Short:   "Run a prompt through every stage until EOS or max tokens",
		Example: "  shardsim generate --stages 4 --layers 32 \"hello world\"",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Prompt = strings.Join(args, " ")
			}
			rt, err := newRuntime(cmd, opts, logw)
			if err != nil {
				return err
			}
			return fnGenerate(cmd, rt, opts)
		},
	}
	generateCmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "hello", "Prompt text")
	generateCmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 32, "Maximum number of generated tokens")
	generateCmd.Flags().StringVar(&opts.RequestID, "request-id", "", "Request id (random UUID when empty)")

	inferCmd := &cobra.Command{
		Use:     "infer",
		Short:   "Run a single InferTensor call on one stage and print the output shape",
		Example: "  shardsim infer --stages 2 --stage 1 --seq-len 7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts, logw)
			if err != nil {
				return err
			}
			return fnInfer(cmd, rt, opts)
		},
	}
	inferCmd.Flags().IntVar(&opts.Stage, "stage", 0, "Pipeline stage index")
	inferCmd.Flags().IntVar(&opts.SeqLen, "seq-len", 7, "Sequence length of the synthetic input")
	inferCmd.Flags().StringVar(&opts.RequestID, "request-id", "", "Request id (random UUID when empty)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return fnPrintConfig(cmd.OutOrStdout(), cfg)
		},
	}

	root.AddCommand(generateCmd, inferCmd, configCmd)
	return root
}
