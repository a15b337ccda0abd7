package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manages declarative header rules",
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all header rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := database.GetHeaderRules(false)
		if err != nil {
			logger.Error("Failed to list header rules: %v", err)
			return err
		}
		if len(rules) == 0 {
			fmt.Println("No header rules installed. Run 'adwatch install' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPRIORITY\tENABLED\tURL FILTER\tHEADER\tRESOURCE TYPES")
		for _, r := range rules {
			types := "(all)"
			if len(r.ResourceTypes) > 0 {
				types = fmt.Sprintf("%v", r.ResourceTypes)
			}
			fmt.Fprintf(w, "%d\t%d\t%t\t%s\t%s\t%s\n", r.ID, r.Priority, r.IsEnabled, r.URLFilter, r.HeaderName, types)
		}
		return w.Flush()
	},
}

var ruleImportCmd = &cobra.Command{
	Use:   "import <rules.json>",
	Short: "Imports header rules from a declarativeNetRequest rules.json export",
	Long: `Reads a browser-extension declarativeNetRequest rules file and installs
every modifyHeaders/set rule it contains. Existing rules with the same IDs
are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading rules file %s: %w", args[0], err)
		}
		if !gjson.ValidBytes(data) {
			return fmt.Errorf("rules file %s is not valid JSON", args[0])
		}

		parsed := gjson.ParseBytes(data)
		if !parsed.IsArray() {
			return fmt.Errorf("rules file %s must contain a JSON array of rules", args[0])
		}

		var removeIDs []int64
		var addRules []models.HeaderRule
		skipped := 0

		for _, raw := range parsed.Array() {
			id := raw.Get("id").Int()
			if id <= 0 {
				logger.Error("Rule import: skipping rule with missing/invalid id: %s", raw.Raw)
				skipped++
				continue
			}
			if raw.Get("action.type").String() != "modifyHeaders" {
				logger.Info("Rule import: skipping rule %d with unsupported action type '%s'", id, raw.Get("action.type").String())
				skipped++
				continue
			}

			header := raw.Get(`action.requestHeaders.#(operation=="set")`)
			if !header.Exists() {
				logger.Info("Rule import: skipping rule %d with no set-header action", id)
				skipped++
				continue
			}

			rule := models.HeaderRule{
				ID:          id,
				Priority:    int(raw.Get("priority").Int()),
				URLFilter:   raw.Get("condition.urlFilter").String(),
				HeaderName:  header.Get("header").String(),
				HeaderValue: header.Get("value").String(),
				IsEnabled:   true,
			}
			if rule.Priority == 0 {
				rule.Priority = 1
			}
			for _, rt := range raw.Get("condition.resourceTypes").Array() {
				rule.ResourceTypes = append(rule.ResourceTypes, rt.String())
			}
			if rule.URLFilter == "" || rule.HeaderName == "" {
				logger.Error("Rule import: skipping rule %d with empty urlFilter or header name", id)
				skipped++
				continue
			}

			removeIDs = append(removeIDs, id)
			addRules = append(addRules, rule)
		}

		if len(addRules) == 0 {
			return fmt.Errorf("no importable modifyHeaders rules found in %s (%d skipped)", args[0], skipped)
		}

		if err := database.ReplaceHeaderRules(removeIDs, addRules); err != nil {
			logger.Error("Rule import failed: %v", err)
			return err
		}
		fmt.Printf("Imported %d rule(s) from %s (%d skipped).\n", len(addRules), args[0], skipped)
		return nil
	},
}

func init() {
	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleImportCmd)
	rootCmd.AddCommand(ruleCmd)
}
