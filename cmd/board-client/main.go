package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/park285/cheese-board/internal/boardclient"
	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/msgcat"
)

const releaseVersion = "0.1.0"

type clientConfig struct {
	Server      string
	MessagesDir string
}

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	cfg := &clientConfig{Server: "http://localhost:3000"}

	cmd := &cobra.Command{
		Use:     "board-client",
		Short:   "Plays on a board server from the terminal.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	bindFlags(cmd.Flags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("board-client v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func bindFlags(fs *pflag.FlagSet, cfg *clientConfig) {
	fs.StringVarP(&cfg.Server, "server", "s", cfg.Server, "board server base URL")
	fs.StringVar(&cfg.MessagesDir, "messages-dir", cfg.MessagesDir, "directory of message catalog overrides")
}

func run(parent context.Context, cfg *clientConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("message catalog: %w", err)
	}
	wsURL, err := boardclient.WSURL(cfg.Server)
	if err != nil {
		return err
	}

	sock := boardclient.NewSocket(wsURL)
	ui := newTUI(cat)
	sock.OnMessage(ui.push)
	sock.OnStateChange(ui.pushState)

	if err := sock.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sock.Close(closeCtx)
	}()

	return ui.loop(ctx, sock)
}
