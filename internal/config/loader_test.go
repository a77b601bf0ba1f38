package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "vocab_size: 1000\nhidden_size: 256\nload_delay_ms: 100\nmodel_id: m1\nn_layers: 32\nstages: 4\nseed: 7\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VocabSize != 1000 || cfg.HiddenSize != 256 || cfg.LoadDelayMS != 100 || cfg.ModelID != "m1" || cfg.NLayers != 32 || cfg.Stages != 4 || cfg.Seed != 7 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"vocab_size":50,"eos_probability":0.25,"simulate_latency":true,"latency_mean_ms":5,"model_id":"m2","greedy":true}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VocabSize != 50 || cfg.EOSProbability != 0.25 || !cfg.SimulateLatency || cfg.LatencyMeanMS != 5 || cfg.ModelID != "m2" || !cfg.Greedy {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "hidden_size=64\nlog_level=\"debug\"\nstages=3\nload_delay_ms=-1\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HiddenSize != 64 || cfg.LogLevel != "debug" || cfg.Stages != 3 || cfg.LoadDelayMS != -1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestWithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.LogLevel != DefaultLogLevel || c.ModelID != DefaultModelID || c.NLayers != DefaultNLayers || c.Stages != DefaultStages {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	c = Config{ModelID: "x", NLayers: 3, Stages: 1}.WithDefaults()
	if c.ModelID != "x" || c.NLayers != 3 || c.Stages != 1 {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
}

func TestEngineConfig(t *testing.T) {
	ec := Config{VocabSize: 10, HiddenSize: 4, LoadDelayMS: 25, LatencyMeanMS: 3, LatencyStddevMS: -1, Seed: 9, Greedy: true}.EngineConfig()
	if ec.VocabSize != 10 || ec.HiddenSize != 4 || ec.LoadDelay != 25*time.Millisecond || ec.LatencyMean != 3*time.Millisecond || ec.LatencyStddev != -time.Millisecond || ec.Seed != 9 || !ec.Greedy {
		t.Fatalf("unexpected engine config: %+v", ec)
	}
}
