package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glosslink/glosslink/internal/types"
)

var (
	termsFormat string
	termsLocale string
	termsSite   string
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List the glossary term definitions",
	Long: `List the term definitions loaded from the glossary file, in the
order the engine applies them (longest source text first).

Examples:
  glosslink terms                 # List all terms in table format
  glosslink terms -f json         # Output as JSON
  glosslink terms --locale de     # Only terms applying to the de locale
  glosslink terms --site 3        # Include terms scoped to site 3`,
	RunE: runTermsCommand,
}

func init() {
	rootCmd.AddCommand(termsCmd)

	termsCmd.Flags().StringVarP(&termsFormat, "format", "f", "table", "Output format (table, json, yaml)")
	termsCmd.Flags().StringVar(&termsLocale, "locale", "", "only terms applying to this locale")
	termsCmd.Flags().StringVar(&termsSite, "site", "", "include terms scoped to this site")
}

func runTermsCommand(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime()
	if err != nil {
		return err
	}

	var entries []types.TermEntry
	if termsLocale != "" {
		entries, err = env.glossary.Query(cmd.Context(), termsLocale, termsSite)
		if err != nil {
			return err
		}
	} else {
		for _, e := range env.glossary.All() {
			if termsSite != "" && e.Site != "" && e.Site != termsSite {
				continue
			}
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		fmt.Println("No terms found.")
		return nil
	}

	switch strings.ToLower(termsFormat) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(entries)
	case "table":
		return outputTermsTable(entries)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", termsFormat)
	}
}

func outputTermsTable(entries []types.TermEntry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tLINK\tABBR\tLANG\tSITE\tEXACT\tCASE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%v\n",
			e.Text, e.Link, e.Abbr, e.Language, e.Site, e.Exact, e.CaseSensitive)
	}
	return w.Flush()
}
