package main

import (
	"github.com/Dias221467/Employee_Manager/internal/config"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		envFile string
		cfg     *config.Config
	)

	loadConfig := func() (*config.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := config.LoadConfig(files...)
		if err != nil {
			return nil, err
		}
		logger.Configure(logger.Options{Level: loaded.LogLevel, File: loaded.LogFile})
		logger.Log.Info("Logger initialized")
		cfg = loaded
		return cfg, nil
	}

	serve := newServeCmd(loadConfig)
	root := &cobra.Command{
		Use:           "employee-manager",
		Short:         "Objective and key-result tracker for the employee manager",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve.RunE,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file instead of .env")

	root.AddCommand(serve, newTokenCmd(loadConfig), newScanCmd(loadConfig))
	return root
}
