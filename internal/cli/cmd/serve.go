package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/shadowtab/internal/config"
	"github.com/bnema/shadowtab/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session backend",
	Long: `Run the session backend as a line-delimited JSON message server.

Requests are read from stdin, one JSON object per line, and each
response is written to stdout on its own line. This is the transport a
browser extension's native messaging host wraps.

The backend also runs the periodic reconciliation and retention loops
until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	ctx, cancel := signal.NotifyContext(app.Ctx(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithComponent(ctx, "server")

	go app.Manager.Run(ctx, app.Config.Session.PollInterval)

	log := logging.FromContext(ctx)

	if cm := app.ConfigManager(); cm != nil {
		cm.OnConfigChange(func(cfg *config.Config) {
			app.Manager.SetDebounceDelay(cfg.Session.DebounceDelay)
			log.Info().
				Dur("debounce_delay", cfg.Session.DebounceDelay).
				Msg("configuration reloaded")
		})
		if err := cm.Watch(); err != nil {
			log.Warn().Err(err).Msg("config file watching unavailable")
		}
	}

	log.Info().Msg("message server started")

	lines := make(chan []byte)
	go readLines(ctx, lines)

	out := bufio.NewWriter(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("message server stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			resp, err := app.Handler.Handle(ctx, line)
			if err != nil {
				log.Error().Err(err).Msg("request failed")
				resp = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
			}
			if _, err := out.Write(resp); err != nil {
				return err
			}
			if err := out.WriteByte('\n'); err != nil {
				return err
			}
			if err := out.Flush(); err != nil {
				return err
			}
		}
	}
}

func readLines(ctx context.Context, lines chan<- []byte) {
	defer close(lines)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		select {
		case <-ctx.Done():
			return
		case lines <- line:
		}
	}
}
