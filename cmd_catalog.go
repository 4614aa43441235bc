package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"rigcheck/internal/config"
	"rigcheck/internal/models"

	"github.com/spf13/cobra"
)

var (
	catalogKind string // cpu, gpu or ram; empty lists all
	catalogJSON bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the benchmark reference table",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&catalogKind, "kind", "", "component kind: cpu, gpu or ram")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "output as JSON")
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	kinds := models.Kinds
	if catalogKind != "" {
		kind, err := models.ParseKind(catalogKind)
		if err != nil {
			return err
		}
		kinds = []models.ComponentKind{kind}
	}
	var entries []models.CatalogEntry
	for _, kind := range kinds {
		entries = append(entries, catalog.Entries(kind)...)
	}

	if catalogJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tNAME\tSCORE\tALIASES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%s\n", e.Kind, e.ID, e.Name, e.Score, strings.Join(e.Aliases, ", "))
	}
	return tw.Flush()
}
