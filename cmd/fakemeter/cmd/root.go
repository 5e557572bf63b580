package cmd

import (
	"fmt"
	"os"

	"github.com/grafana/metersummary/logger"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fakemeter",
	Short: "Generates fake power-quality meter reads and configuration changes for metersummary",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.Setup(viper.GetString("log-level"), "fakemeter"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var (
	// config params used by >1 subcommands are listed here
	// config params specific to only 1 command, go in the file for that command
	cfgFile string
)

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fakemeter.yaml)")
	pf.String("log-level", "info", "log level. panic|fatal|error|warning|info|debug")
	pf.String("http-addr", "", "metersummary http address to push to. e.g. http://localhost:6060")
	pf.String("kafka-addr", "", "kafka TCP address to produce to. e.g. localhost:9092")
	pf.String("kafka-comp", "snappy", "compression: none|gzip|snappy")
	pf.String("reads-topic", "meter-reads", "kafka topic for meter reads")
	pf.String("config-topic", "meter-config", "kafka topic for configuration messages")
	pf.String("token", "", "bearer token for configuration changes over http")
	pf.Bool("stdout", false, "print generated messages to stdout")

	for _, name := range []string{"log-level", "http-addr", "kafka-addr", "kafka-comp", "reads-topic", "config-topic", "token", "stdout"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fakemeter" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".fakemeter")
	}

	viper.SetEnvPrefix("fakemeter")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}
