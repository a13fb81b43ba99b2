package main

import (
	"fmt"
	"strings"

	"go-emotion-inspector/internal/analyzer"
	"go-emotion-inspector/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "EMOTIONCTL"

// cli carries the settings shared by every subcommand
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "emotionctl",
		Short:        "emotionctl - heuristic emotion scoring from the command line",
		Long:         "Scores text, images and speech energy with the same heuristics as the API and prints the result as JSON or YAML.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.StringP("output", "o", formatJSON, "output format: json or yaml")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Int("stride", analyzer.DefaultStride, "pixel sampling stride")
	flags.Float64("high-arousal", analyzer.DefaultHighArousal, "arousal above which sad becomes angry and neutral becomes surprise")
	flags.Float64("low-arousal", analyzer.DefaultLowArousal, "arousal below which angry becomes sad")

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)

	rootCmd.AddCommand(
		c.textCmd(),
		c.imageCmd(),
		c.speechCmd(),
		c.fuseCmd(),
		c.colorsCmd(),
	)
	return rootCmd
}

// init reads the optional config file and sets up logging on stderr
func (c *cli) init(cmd *cobra.Command) error {
	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	logger.UseTextOutput(cmd.ErrOrStderr())
	logger.SetLevel(c.v.GetString("log-level"))

	if _, err := parseFormat(c.v.GetString("output")); err != nil {
		return err
	}
	if stride := c.v.GetInt("stride"); stride <= 0 {
		return fmt.Errorf("stride must be > 0 (got %d)", stride)
	}
	high, low := c.v.GetFloat64("high-arousal"), c.v.GetFloat64("low-arousal")
	if low < 0 || high > 1 || low > high {
		return fmt.Errorf("arousal thresholds must satisfy 0 <= low <= high <= 1 (got low=%v high=%v)", low, high)
	}
	return nil
}

// options builds analysis options from flags, env and config file
func (c *cli) options() analyzer.AnalysisOptions {
	return analyzer.DefaultOptions().
		WithStride(c.v.GetInt("stride")).
		WithFusionThresholds(c.v.GetFloat64("high-arousal"), c.v.GetFloat64("low-arousal"))
}

// print writes v to the command's stdout in the selected format
func (c *cli) print(cmd *cobra.Command, v interface{}) error {
	format, err := parseFormat(c.v.GetString("output"))
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, v)
}
