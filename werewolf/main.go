package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gosuda.org/portal/portal/core/cryptoops"
	"gosuda.org/portal/sdk"
)

var rootCmd = &cobra.Command{
	Use:          "werewolf",
	Short:        "Portal demo: werewolf game master with phone seats",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve werewolf games over the relay and/or a local port",
	RunE:  runServer,
}

var cfg serverConfig

func init() {
	var err error
	if cfg, err = loadConfig(); err != nil {
		log.Warn().Err(err).Msg("[werewolf] ignoring environment")
		cfg = serverConfig{Port: 8080, Name: "werewolf", BufferSize: 16, IdleTimeout: 10 * time.Minute}
	}

	flags := serveCmd.Flags()
	flags.StringSliceVar(&cfg.RelayURLs, "server-url", cfg.RelayURLs, "relayserver base URL(s); repeat or comma-separated (from env RELAY if set)")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "local HTTP port (negative to disable)")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "backend display name")
	flags.StringVar(&cfg.CredKey, "cred-key", cfg.CredKey, "optional credential key to use for the listener (base64 encoded)")
	flags.StringVar(&cfg.DataPath, "data-path", cfg.DataPath, "directory of the deck store (empty disables saved decks)")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "role dealing seed (0 picks a random seed per game)")
	flags.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "prompt and answer buffer per participant")
	flags.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "how long an abandoned game is kept for reconnects")

	rootCmd.AddCommand(serveCmd, simulateCmd, rolesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute werewolf command")
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := make([]string, 0, len(cfg.RelayURLs))
	for _, raw := range cfg.RelayURLs {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			servers = append(servers, trimmed)
		}
	}

	decks, err := openDeckStore(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("open deck store: %w", err)
	}
	defer func() {
		if err := decks.Close(); err != nil {
			log.Warn().Err(err).Msg("[werewolf] close deck store")
		}
	}()

	mgr := NewRoomManager(decks, roomOptions{seed: cfg.Seed, bufferSize: cfg.BufferSize, idleTimeout: cfg.IdleTimeout})
	handler := NewHTTPServer(mgr, decks)

	var (
		ln     net.Listener
		client *sdk.RDClient
	)

	if len(servers) > 0 {
		cred := sdk.NewCredential()
		if cfg.CredKey != "" {
			key, err := base64.StdEncoding.DecodeString(cfg.CredKey)
			if err != nil {
				return fmt.Errorf("decode cred key: %w", err)
			}
			cred2, err := cryptoops.NewCredentialFromPrivateKey(key)
			if err != nil {
				return fmt.Errorf("new credential from private key: %w", err)
			}
			cred = cred2
		}

		c, err := sdk.NewClient(func(c *sdk.RDClientConfig) {
			c.BootstrapServers = servers
		})
		if err != nil {
			return fmt.Errorf("new client: %w", err)
		}
		listener, err := c.Listen(cred, cfg.Name, []string{"http/1.1"})
		if err != nil {
			_ = c.Close()
			return fmt.Errorf("listen: %w", err)
		}
		client = c
		ln = listener
		log.Info().Msg("[werewolf] relay listener enabled")
	} else {
		log.Info().Msg("[werewolf] relay disabled; running local mode only")
	}

	mux := handler.Router()
	if ln != nil {
		go func() {
			if err := http.Serve(ln, mux); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
				log.Error().Err(err).Msg("[werewolf] relay http error")
			}
		}()
	}

	var httpSrv *http.Server
	if cfg.Port >= 0 {
		httpSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux, ReadHeaderTimeout: 5 * time.Second, IdleTimeout: 60 * time.Second}
		log.Info().Msgf("[werewolf] serving locally at http://127.0.0.1:%d", cfg.Port)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn().Err(err).Msg("[werewolf] local http stopped")
			}
		}()
	}

	<-ctx.Done()
	if ln != nil {
		_ = ln.Close()
	}
	if client != nil {
		_ = client.Close()
	}
	if httpSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("[werewolf] http server shutdown error")
		}
	}
	mgr.Close()
	log.Info().Msg("[werewolf] shutdown complete")
	return nil
}
