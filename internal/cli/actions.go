package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shardsim/internal/common/fsutil"
	"shardsim/internal/config"
	"shardsim/internal/engine"
	"shardsim/internal/pipeline"
	"shardsim/pkg/types"
)

// defaultConfigPaths are tried in order when --config and SHARDSIM_CONFIG are unset.
var defaultConfigPaths = []string{
	"shardsim.yaml",
	"shardsim.toml",
	"shardsim.json",
	"~/.config/shardsim/config.yaml",
}

// runtime is the wired set of engines for one command invocation.
type runtime struct {
	cfg     config.Config
	log     zerolog.Logger
	reg     *prometheus.Registry
	engines []*engine.Dummy
	pipe    *pipeline.Pipeline
}

// resolveConfig merges, lowest first: package defaults, config file, flags.
func resolveConfig(cmd *cobra.Command, opts *Options) (config.Config, error) {
	var cfg config.Config
	path := opts.ConfigPath
	if path == "" {
		path, _ = fsutil.FirstRegularFile(defaultConfigPaths...)
	}
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") || (cfg.LogLevel == "" && opts.LogLevel != "") {
		cfg.LogLevel = opts.LogLevel
	}
	if flags.Changed("seed") || (cfg.Seed == 0 && opts.Seed != 0) {
		cfg.Seed = opts.Seed
	}
	if flags.Changed("model") {
		cfg.ModelID = opts.ModelID
	}
	if flags.Changed("layers") {
		cfg.NLayers = opts.Layers
	}
	if flags.Changed("stages") {
		cfg.Stages = opts.Stages
	}
	if flags.Changed("greedy") {
		cfg.Greedy = opts.Greedy
	}
	if flags.Changed("load-delay-ms") {
		cfg.LoadDelayMS = opts.LoadDelay
	}
	return cfg.WithDefaults(), nil
}

func newRuntime(cmd *cobra.Command, opts *Options, logw io.Writer) (*runtime, error) {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg: cfg,
		log: newLogger(logw, cfg.LogLevel),
		reg: prometheus.NewRegistry(),
	}
	metrics := engine.NewMetrics(rt.reg)
	base := cfg.EngineConfig()
	ifaces := make([]engine.InferenceEngine, cfg.Stages)
	for i := 0; i < cfg.Stages; i++ {
		ec := base
		if ec.Seed != 0 {
			ec.Seed += int64(i)
		}
		e := engine.New(ec,
			engine.WithLogger(rt.log.With().Int("stage", i).Logger()),
			engine.WithMetrics(metrics),
		)
		rt.engines = append(rt.engines, e)
		ifaces[i] = e
	}
	rt.pipe, err = pipeline.New(cfg.ModelID, cfg.NLayers, ifaces...)
	if err != nil {
		return nil, err
	}
	rt.pipe.SetLogger(rt.log)
	rt.log.Debug().
		Str("model", cfg.ModelID).
		Int("layers", cfg.NLayers).
		Int("stages", cfg.Stages).
		Int64("seed", cfg.Seed).
		Msg("runtime ready")
	return rt, nil
}

func fnGenerate(cmd *cobra.Command, rt *runtime, opts *Options) error {
	res, err := rt.pipe.Generate(cmd.Context(), opts.RequestID, opts.Prompt, opts.MaxTokens)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	err = writeResult(out, opts.Output, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "request_id=%s finish=%s prompt_tokens=%d completion_tokens=%d\n%s\n",
			res.RequestID, res.FinishReason, res.PromptTokens, len(res.Tokens), res.Text)
		return err
	})
	if err != nil {
		return err
	}
	return maybeDumpMetrics(out, rt, opts)
}

func fnInfer(cmd *cobra.Command, rt *runtime, opts *Options) error {
	stages := rt.pipe.Stages()
	if opts.Stage < 0 || opts.Stage >= len(stages) {
		return fmt.Errorf("stage %d out of range [0,%d)", opts.Stage, len(stages))
	}
	if opts.SeqLen <= 0 {
		return fmt.Errorf("seq-len must be positive, got %d", opts.SeqLen)
	}
	st := stages[opts.Stage]
	var input types.Tensor
	if st.Shard.IsFirstLayer() {
		toks := make([]int, opts.SeqLen)
		for i := range toks {
			toks[i] = 1
		}
		input = types.TokensTensor(toks)
	} else {
		input = types.NewTensor(1, opts.SeqLen, rt.engines[opts.Stage].Config().HiddenSize)
	}
	reqID := opts.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	t, err := st.Engine.InferTensor(cmd.Context(), reqID, st.Shard, input)
	if err != nil {
		return err
	}
	res := types.InferResult{RequestID: reqID, Shard: st.Shard, Shape: t.Shape}
	out := cmd.OutOrStdout()
	err = writeResult(out, opts.Output, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "request_id=%s shard=%s shape=%v\n", res.RequestID, res.Shard, res.Shape)
		return err
	})
	if err != nil {
		return err
	}
	return maybeDumpMetrics(out, rt, opts)
}

func fnPrintConfig(w io.Writer, cfg config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// writeResult renders v as json or yaml, or calls text for the default format.
func writeResult(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "", "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text|json|yaml)", format)
	}
}

func maybeDumpMetrics(w io.Writer, rt *runtime, opts *Options) error {
	if !opts.Metrics {
		return nil
	}
	mfs, err := rt.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
