package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stintio/stint/internal/model"
)

var (
	cfgFile    string
	warningSec int
	errorSec   int
	logLevel   string
	logFile    string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "stint",
	Short: "Stint — batch-job runtime auditor",
	Long: `Stint scans line-oriented job-event logs, pairs START/END events by pid,
and reports jobs whose runtime crossed the warning or error threshold.
It can scan finished logs in one pass, follow a growing log live, or serve
a small dashboard over a live run.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.stint.yaml)")
	rootCmd.PersistentFlags().IntVar(&warningSec, "warning-threshold", 300, "warning threshold in seconds")
	rootCmd.PersistentFlags().IntVar(&errorSec, "error-threshold", 600, "error threshold in seconds")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogPath(), "diagnostic log file (empty to log to stderr only)")

	viper.BindPFlag("warning_threshold", rootCmd.PersistentFlags().Lookup("warning-threshold"))
	viper.BindPFlag("error_threshold", rootCmd.PersistentFlags().Lookup("error-threshold"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".stint")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STINT")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// thresholds assembles the classification cutoffs from config and flags.
// Values are configured in whole seconds.
func thresholds() (model.Thresholds, error) {
	t := model.Thresholds{
		Warning: time.Duration(viper.GetInt("warning_threshold")) * time.Second,
		Error:   time.Duration(viper.GetInt("error_threshold")) * time.Second,
	}
	if err := t.Validate(); err != nil {
		return model.Thresholds{}, err
	}
	return t, nil
}
