package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/claimcheck/internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimcheck",
	Short: "claimcheck - streaming fact-checks for short claims",
	Long: `claimcheck fact-checks a claim in five steps:
generate search queries, search the web in parallel, merge the evidence,
ask a language model for a cited verdict, then write a short shareable post.

Verdicts are grounded only in the retrieved sources and cite them.
claimcheck is an assistant, not an authority.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimcheck v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and CLAIMCHECK_* environment variables
func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".claimcheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CLAIMCHECK_SEARCH_MAX_RESULTS overrides search.max_results
	viper.SetEnvPrefix("CLAIMCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	for _, key := range []string{"llm.api_key", "llm.base_url", "search.api_key", "search.base_url", "cache.dir"} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so env overrides apply to nested keys
func registerDefaults(cfg *model.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults("", tree)
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			setDefaults(key, nested)
			continue
		}
		viper.SetDefault(key, value)
	}
}

// loadConfig merges defaults, config file, environment and provider keys, then validates
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderEnv(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProviderEnv fills credentials from the conventional provider variables
func applyProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		if env := llm.APIKeyEnv(cfg.LLM.Provider); env != "" {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if cfg.Search.APIKey == "" {
		if env := search.APIKeyEnv(cfg.Search.Provider); env != "" {
			cfg.Search.APIKey = os.Getenv(env)
		}
	}
}
