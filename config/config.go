package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the benchmark tool.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds corpus indexing configuration.
type IndexConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkChars   int      `yaml:"chunk_chars"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// RetrieveConfig holds the two-stage retrieval knobs.
type RetrieveConfig struct {
	TopKFragments   int `yaml:"top_k_fragments"`
	TopDocs         int `yaml:"top_docs"`
	FragmentsPerDoc int `yaml:"fragments_per_doc"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// BenchmarkConfig holds the evaluation-run configuration.
type BenchmarkConfig struct {
	QuestionsFile   string  `yaml:"questions_file"`
	Limit           int     `yaml:"limit"`
	AnswerModel     string  `yaml:"answer_model"`
	JudgeModel      string  `yaml:"judge_model"`
	PenaltyRatio    float64 `yaml:"penalty_ratio"`
	Concurrency     int     `yaml:"concurrency"`
	OutputDir       string  `yaml:"output_dir"`
	MaxAnswerTokens int     `yaml:"max_answer_tokens"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:     []string{"**/*.md", "**/*.txt"},
			Excludes:     []string{"**/.git/**", "**/node_modules/**"},
			ChunkChars:   1600,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopKFragments:   30,
			TopDocs:         5,
			FragmentsPerDoc: 10,
			MaxContextChars: 12000,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Benchmark: BenchmarkConfig{
			QuestionsFile:   "data/benchmark_questions.csv",
			Limit:           100,
			AnswerModel:     "gpt-5.1",
			JudgeModel:      "gpt-4.1-mini",
			PenaltyRatio:    4.0,
			Concurrency:     4,
			OutputDir:       "runs",
			MaxAnswerTokens: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragbench.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragbench.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragbench", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index artifact.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".ragbench", "index.db")
}

// EnsureWorkDir ensures the .ragbench directory exists.
func EnsureWorkDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragbench"), 0755)
}
