package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glosslink/glosslink/internal/engine"
	"github.com/glosslink/glosslink/internal/types"
)

var (
	processLocale  string
	processSite    string
	processLimit   int
	processPath    string
	processDocID   string
	processDocPath string
	processEdit    bool
	processOutput  string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Substitute glossary terms in an HTML file or stdin",
	Long: `Process reads HTML content from a file (or stdin when no file is
given), rewrites plain-text occurrences of glossary terms into links
and abbreviation markup, and writes the result to stdout or --output.

Existing markup is never modified: text inside links, code blocks, and
the other protected elements stays untouched, and a term is never
substituted with a link to the page being processed.

Examples:
  glosslink process page.html
  glosslink process page.html --locale de --limit 1
  cat page.html | glosslink process --path /docs/page/ -o out.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcessCommand,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processLocale, "locale", "", "content locale (defaults to glossary.locale from config)")
	processCmd.Flags().StringVar(&processSite, "site", "", "site identifier for site-scoped terms")
	processCmd.Flags().IntVar(&processLimit, "limit", -1, "max replacements per term for the document (negative = unlimited)")
	processCmd.Flags().StringVar(&processPath, "path", "", "request path of the content, used for self-link exclusion")
	processCmd.Flags().StringVar(&processDocID, "doc-id", "", "document id of the content, used for self-link exclusion")
	processCmd.Flags().StringVar(&processDocPath, "doc-path", "", "full path of the document, used for self-link exclusion")
	processCmd.Flags().BoolVar(&processEdit, "edit", false, "edit mode: return content unchanged")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "write the result to a file instead of stdout")
}

func runProcessCommand(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}

	content, err := readInput(args)
	if err != nil {
		return err
	}

	page := buildPageContext(env)
	opts := engine.Options{Limit: processLimit}
	if !cmd.Flags().Changed("limit") && env.cfg.Engine.Limit != -1 {
		opts.Limit = env.cfg.Engine.Limit
	}

	result := env.engine.Process(cmd.Context(), string(content), page, opts)

	if processOutput != "" {
		return os.WriteFile(processOutput, []byte(result), 0o644)
	}
	fmt.Fprint(os.Stdout, result)
	return nil
}

// readInput reads the positional file argument, or stdin when absent.
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

// buildPageContext merges the command flags with the configured
// glossary defaults into the request context for one document.
func buildPageContext(env *runtimeEnv) types.PageContext {
	locale := processLocale
	if locale == "" {
		locale = env.cfg.Glossary.Locale
	}
	site := processSite
	if site == "" {
		site = env.cfg.Glossary.Site
	}

	page := types.PageContext{
		Locale:      locale,
		RequestPath: processPath,
		EditMode:    processEdit,
		IsSite:      site != "",
		SiteID:      site,
	}
	if processDocID != "" || processDocPath != "" {
		page.Document = &types.DocumentRef{ID: processDocID, FullPath: processDocPath}
	}
	return page
}
