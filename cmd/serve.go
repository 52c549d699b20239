package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glosslink/glosslink/internal/engine"
	"github.com/glosslink/glosslink/internal/server"
	"github.com/glosslink/glosslink/internal/types"
)

var (
	serveLocale string
	serveSite   string
	serveHost   string
	servePort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Preview a processed HTML file with live reload",
	Long: `Serve starts a local preview server for one HTML file. The file is
processed with the configured glossary on every request, and the
browser reloads automatically when the file or the glossary changes.

Examples:
  glosslink serve page.html
  glosslink serve page.html --port 8080 --locale de`,
	Args: cobra.ExactArgs(1),
	RunE: runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveLocale, "locale", "", "content locale (defaults to glossary.locale from config)")
	serveCmd.Flags().StringVar(&serveSite, "site", "", "site identifier for site-scoped terms")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind the server to")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to bind the server to")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}

	source := args[0]
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("cannot serve %s: %w", source, err)
	}

	serverCfg := env.cfg.Server
	if serveHost != "" {
		serverCfg.Host = serveHost
	}
	if servePort != 0 {
		serverCfg.Port = servePort
	}

	locale := serveLocale
	if locale == "" {
		locale = env.cfg.Glossary.Locale
	}
	site := serveSite
	if site == "" {
		site = env.cfg.Glossary.Site
	}
	page := types.PageContext{Locale: locale, IsSite: site != "", SiteID: site}

	opts := engine.DefaultOptions()
	opts.Limit = env.cfg.Engine.Limit

	srv := server.New(serverCfg, env.engine, env.glossary, source, page, opts, env.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %s at http://%s\n", source, srv.Addr())
	return srv.Start(ctx)
}
