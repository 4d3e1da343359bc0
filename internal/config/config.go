package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-bpe-tokenizer/internal/bpe"
	"github.com/example/go-bpe-tokenizer/internal/text"
	"github.com/example/go-bpe-tokenizer/internal/tokenizer"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Server    ServerConfig    `mapstructure:"server"`
	LogLevel  string          `mapstructure:"log_level"`
}

type PathsConfig struct {
	CorpusPath string `mapstructure:"corpus_path"`
	VocabPath  string `mapstructure:"vocab_path"`
}

type TokenizerConfig struct {
	Iterations    int    `mapstructure:"iterations"`
	Normalization string `mapstructure:"normalization"`
	DefaultVocab  string `mapstructure:"default_vocab"`
	Verbose       bool   `mapstructure:"verbose"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			CorpusPath: "corpus.txt",
			VocabPath:  "vocab.yaml",
		},
		Tokenizer: TokenizerConfig{
			Iterations:    1000,
			Normalization: text.None.String(),
			DefaultVocab:  bpe.DefaultNone.String(),
			Verbose:       false,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    65536,
			RequestTimeout:  30,
			ShutdownTimeout: 10,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-corpus-path", defaults.Paths.CorpusPath, "Path to the training corpus")
	fs.String("paths-vocab-path", defaults.Paths.VocabPath, "Path to the saved vocabulary file")
	fs.Int("tokenizer-iterations", defaults.Tokenizer.Iterations, "Maximum number of BPE merges")
	fs.String("tokenizer-normalization", defaults.Tokenizer.Normalization, "Case normalization (none|lowercase|uppercase)")
	fs.String("tokenizer-default-vocab", defaults.Tokenizer.DefaultVocab, "Fixed symbol sets to add (alpha|numeric|special|whitespace|padding|all|none)")
	fs.Bool("tokenizer-verbose", defaults.Tokenizer.Verbose, "Log every merge while training")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent encode/decode requests (0 disables the limit)")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max text size accepted by POST /encode")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("BPETOK")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("bpetok")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Options converts the tokenizer section into tokenizer.Options.
func (c TokenizerConfig) Options() (tokenizer.Options, error) {
	if c.Iterations < 0 {
		return tokenizer.Options{}, fmt.Errorf("tokenizer.iterations: %w: %d", bpe.ErrNegativeIterations, c.Iterations)
	}

	mode, err := text.ParseMode(c.Normalization)
	if err != nil {
		return tokenizer.Options{}, fmt.Errorf("tokenizer.normalization: %w", err)
	}

	defaults, err := bpe.ParseDefaultVocab(c.DefaultVocab)
	if err != nil {
		return tokenizer.Options{}, fmt.Errorf("tokenizer.default_vocab: %w", err)
	}

	return tokenizer.Options{
		Iterations:    c.Iterations,
		Normalization: mode,
		DefaultVocab:  defaults,
		Verbose:       c.Verbose,
	}, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.corpus_path", c.Paths.CorpusPath)
	v.SetDefault("paths.vocab_path", c.Paths.VocabPath)
	v.SetDefault("tokenizer.iterations", c.Tokenizer.Iterations)
	v.SetDefault("tokenizer.normalization", c.Tokenizer.Normalization)
	v.SetDefault("tokenizer.default_vocab", c.Tokenizer.DefaultVocab)
	v.SetDefault("tokenizer.verbose", c.Tokenizer.Verbose)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to their flag names. Binding per key keeps
// config file values visible; aliasing the dashed flag names hides them.
var flagKeys = []struct{ key, flag string }{
	{"paths.corpus_path", "paths-corpus-path"},
	{"paths.vocab_path", "paths-vocab-path"},
	{"tokenizer.iterations", "tokenizer-iterations"},
	{"tokenizer.normalization", "tokenizer-normalization"},
	{"tokenizer.default_vocab", "tokenizer-default-vocab"},
	{"tokenizer.verbose", "tokenizer-verbose"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "server-workers"},
	{"server.max_text_bytes", "server-max-text-bytes"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"log_level", "log-level"},
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("%s: %w", fk.flag, err)
		}
	}

	return nil
}
