// Command drive is the paperdrive client: an offline-first outliner
// and file tree kept in a local SQLite event log and replicated
// against a drived server when one is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"paperdrive/pkg/eventlog"
	"paperdrive/pkg/replica"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "drive",
		Short:         "Offline-first outliner and file tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.config/paperdrive/config.yaml)")
	root.PersistentFlags().String("remote", "", "replication server URL")
	cobra.OnInitialize(initConfig)
	viper.BindPFlag("remote_url", root.PersistentFlags().Lookup("remote"))

	root.AddCommand(
		newInitCmd(),
		newTreeCmd(),
		newNewCmd(),
		newMvCmd(),
		newSetCmd(),
		newCatCmd(),
		newRmCmd(),
		newSyncCmd(),
		newStatusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(filepath.Join(home, ".config", "paperdrive"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PAPERDRIVE")

	home, _ := os.UserHomeDir()
	viper.SetDefault("db_path", filepath.Join(home, ".local", "share", "paperdrive", "events.db"))
	viper.SetDefault("remote_url", "")

	_ = viper.ReadInConfig()
}

// drive bundles the open resources behind a one-shot CLI invocation.
type drive struct {
	log     *eventlog.Log
	replica *replica.Replica
	store   *eventlog.SQLiteStore
}

// openDrive opens the local store, replays it into memory and
// bootstraps an empty drive. Callers must call close when done; close
// flushes unpersisted events first.
func openDrive(ctx context.Context) (*drive, func(), error) {
	path := viper.GetString("db_path")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	store, err := eventlog.OpenSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}

	var remote eventlog.DurableLog
	if url := viper.GetString("remote_url"); url != "" {
		remote = eventlog.NewHTTPStore(url)
	}

	log := eventlog.NewLog()
	r := replica.New(log, store, remote, cliLogger())
	if err := r.Open(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	d := &drive{log: log, replica: r, store: store}
	closeFn := func() {
		if err := r.Flush(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "warning: flush failed:", err)
		}
		store.Close()
	}
	return d, closeFn, nil
}

// cliLogger keeps the replica quiet during interactive use; warnings
// and errors still reach stderr.
func cliLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
