package screening

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	envPrefix         = "BULLYSCAN_"

	// DefaultSentimentSampleCap bounds how many comments are scored for sentiment.
	DefaultSentimentSampleCap = 100
)

// EmbedderConfig controls where the multilingual encoder is loaded from.
type EmbedderConfig struct {
	OrtLibrary string `koanf:"ortLibrary" json:"ortLibrary"`
	// LocalDir holds the fine-tuned checkpoint (tokenizer.json + model.onnx).
	LocalDir string `koanf:"localDir" json:"localDir"`
	// BaseDir holds the base checkpoint used when LocalDir cannot be loaded.
	BaseDir    string `koanf:"baseDir" json:"baseDir"`
	BaseModel  string `koanf:"baseModel" json:"baseModel"`
	MaxSeqLen  int    `koanf:"maxSeqLen" json:"maxSeqLen"`
	HiddenSize int    `koanf:"hiddenSize" json:"hiddenSize"`
	OutputName string `koanf:"outputName" json:"outputName"`
	CacheDir   string `koanf:"cacheDir" json:"cacheDir"`
}

// ClassifierConfig points at the serialised linear model.
type ClassifierConfig struct {
	Path string `koanf:"path" json:"path"`
}

// SentimentConfig controls the sentiment model and the sampling caps.
type SentimentConfig struct {
	ModelDir               string `koanf:"modelDir" json:"modelDir"`
	MaxSeqLen              int    `koanf:"maxSeqLen" json:"maxSeqLen"`
	SampleCap              int    `koanf:"sampleCap" json:"sampleCap"`
	CyberbullyingSampleCap int    `koanf:"cyberbullyingSampleCap" json:"cyberbullyingSampleCap"`
	// Disabled skips the model and uses the lexicon scorer directly.
	Disabled bool `koanf:"disabled" json:"disabled"`
}

// ReportConfig holds report presentation settings.
type ReportConfig struct {
	LogoPath              string `koanf:"logoPath" json:"logoPath"`
	CyberbullyingCloudMin int    `koanf:"cyberbullyingCloudMin" json:"cyberbullyingCloudMin"`
	MaxCloudWords         int    `koanf:"maxCloudWords" json:"maxCloudWords"`
}

// Config aggregates runtime settings read from config.yaml and the environment.
type Config struct {
	Embedder   EmbedderConfig   `koanf:"embedder" json:"embedder"`
	Classifier ClassifierConfig `koanf:"classifier" json:"classifier"`
	Sentiment  SentimentConfig  `koanf:"sentiment" json:"sentiment"`
	Report     ReportConfig     `koanf:"report" json:"report"`
}

// LoadConfig reads path (default config.yaml) and applies BULLYSCAN_* environment
// overrides, e.g. BULLYSCAN_CLASSIFIER__PATH. A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	// Environment keys arrive lowercased; map them onto the spelling used in
	// the file so an override replaces the file value instead of shadowing it.
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ToLower(key)] = key
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := envKey(s)
		if canonical, ok := known[key]; ok {
			return canonical
		}
		return key
	}), nil); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if cfg.Embedder.CacheDir != "" {
		if err := os.MkdirAll(cfg.Embedder.CacheDir, 0o755); err != nil {
			return cfg, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return cfg, nil
}

// envKey maps BULLYSCAN_SENTIMENT__SAMPLECAP to sentiment.samplecap. Keys are
// matched case-insensitively by the decoder.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Embedder.LocalDir == "" {
		c.Embedder.LocalDir = "./models/finetuned"
	}
	if c.Embedder.BaseDir == "" {
		c.Embedder.BaseDir = "./models/xlm-roberta-base"
	}
	if c.Embedder.BaseModel == "" {
		c.Embedder.BaseModel = "xlm-roberta-base"
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 512
	}
	if c.Embedder.HiddenSize == 0 {
		c.Embedder.HiddenSize = 768
	}
	if c.Embedder.OutputName == "" {
		c.Embedder.OutputName = "last_hidden_state"
	}
	if c.Classifier.Path == "" {
		c.Classifier.Path = "./models/classifier.json"
	}
	if c.Sentiment.ModelDir == "" {
		c.Sentiment.ModelDir = "./models/sentiment"
	}
	if c.Sentiment.MaxSeqLen == 0 {
		c.Sentiment.MaxSeqLen = 512
	}
	if c.Sentiment.SampleCap <= 0 {
		c.Sentiment.SampleCap = DefaultSentimentSampleCap
	}
	if c.Sentiment.CyberbullyingSampleCap <= 0 {
		c.Sentiment.CyberbullyingSampleCap = DefaultSentimentSampleCap
	}
	if c.Report.CyberbullyingCloudMin <= 0 {
		c.Report.CyberbullyingCloudMin = 5
	}
	if c.Report.MaxCloudWords <= 0 {
		c.Report.MaxCloudWords = 100
	}
}
