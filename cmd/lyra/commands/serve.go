package commands

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [script.yaml]",
	Short: "Serve editor sessions to a browser hosted renderer",
	Long: `Start an HTTP server with a websocket endpoint at /ws, one editor session per
connection, and Prometheus metrics at /metrics. When a script is given every
session starts from its document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := editorOptions(cfg)
		if err != nil {
			return err
		}

		srv := server.New(slog.Default())
		srv.Options = opts

		if len(args) == 1 {
			script, err := LoadScript(args[0])
			if err != nil {
				return err
			}
			srv.Setup = func(e *lyra.Editor) error {
				_, err := script.Build(e)
				return err
			}
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		mux := http.NewServeMux()
		mux.Handle("/ws", srv)
		mux.Handle("/metrics", promhttp.Handler())

		slog.Info("serving", slog.String("addr", addr))
		return http.ListenAndServe(addr, mux)
	},
}

func init() {
	AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config server.addr)")
}
