package main

import (
	"fmt"
	"os"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version 构建时注入
	Version = "dev"

	cfgFile string
)

// rootCmd 不带子命令时直接启动服务
var rootCmd = &cobra.Command{
	Use:           "rootrise-ledger",
	Short:         "RootRise agricultural crowdfunding ledger",
	Version:       Version,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate the configuration, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("config ok: token=%s workflow=%s database=%s\n",
			cfg.Engine.Token, cfg.Engine.FarmerWorkflow, cfg.Database.Driver)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig 读取并校验配置
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
