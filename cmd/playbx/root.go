// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/playbx/config"
	"github.com/ik5/playbx/internal/logging"
)

type rootFlags struct {
	configPath string
	envFiles   []string
	logLevel   string
	backend    string
	assetsRoot string
}

func newRootCommand() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:           "playbx",
		Short:         "Play sound assets as concurrent playback instances",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default ./playbx.yaml if present)")
	pf.StringSliceVar(&flags.envFiles, "env", nil, ".env files to load before reading the config (default .env)")
	pf.StringVar(&flags.logLevel, "log-level", "", "override log.level")
	pf.StringVar(&flags.backend, "backend", "", "override audio.backend (oto, beep, null)")
	pf.StringVar(&flags.assetsRoot, "root", "", "override assets.root")

	root.AddCommand(
		newPlayCommand(a),
		newRenderCommand(a),
		newProbeCommand(a),
	)

	return root
}

// withApp runs fn and then releases everything the app opened for it, even
// when fn fails.
func withApp(a *app, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.close())
		}()
		return fn(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	if err := config.LoadEnv(flags.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("backend") {
		cfg.Audio.Backend = flags.backend
	}
	if cmd.Flags().Changed("root") {
		cfg.Assets.Root = flags.assetsRoot
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.closers = append(a.closers, closeLog)

	log.Debug("configuration loaded",
		zap.String("backend", cfg.Audio.Backend),
		zap.Int("sample_rate", cfg.Audio.SampleRate),
		zap.String("assets", cfg.Assets.Root))

	return nil
}
