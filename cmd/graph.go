package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/graphview"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Fetch and filter the knowledge graph",
	Long: `Fetches the knowledge base graph, applies category filters, and
prints it as JSON or a Mermaid diagram. Category toggles default to on;
use --hide to switch whole categories off and --episode-types /
--entity-types / --relation-types to narrow within one.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().Int64("kb", 0, "knowledge base id (overrides config)")
	graphCmd.Flags().StringSlice("groups", nil, "limit to these document group ids")
	graphCmd.Flags().StringSlice("hide", nil, "hide categories: episodes, entities, communities, relations")
	graphCmd.Flags().StringSlice("episode-types", nil, "show only these episode subtypes (document, section, image, table)")
	graphCmd.Flags().StringSlice("entity-types", nil, "show only these entity types")
	graphCmd.Flags().StringSlice("relation-types", nil, "show only these relation types")
	graphCmd.Flags().Bool("mermaid", false, "output a Mermaid diagram instead of JSON")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	client, err := requireAuthClient(cfg, store)
	if err != nil {
		return err
	}

	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}

	groups, _ := cmd.Flags().GetStringSlice("groups")
	g, err := client.GetGraph(context.Background(), kbID, groups)
	if err != nil {
		return err
	}

	filterCfg, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	filtered := graphview.Filter(*g, filterCfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "%d/%d nodes, %d/%d edges after filtering\n",
			len(filtered.Nodes), len(g.Nodes), len(filtered.Edges), len(g.Edges))
	}

	if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
		fmt.Println(graphview.Mermaid(filtered))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(filtered)
}

// filterFromFlags translates the graph command's flags into a
// FilterConfig.
func filterFromFlags(cmd *cobra.Command) (graphview.FilterConfig, error) {
	cfg := graphview.DefaultFilterConfig()

	hide, _ := cmd.Flags().GetStringSlice("hide")
	for _, category := range hide {
		switch strings.ToLower(category) {
		case "episodes":
			cfg.ShowEpisodes = false
		case "entities":
			cfg.ShowEntities = false
		case "communities":
			cfg.ShowCommunities = false
		case "relations":
			cfg.ShowRelations = false
		default:
			return cfg, fmt.Errorf("unknown category %q (valid: episodes, entities, communities, relations)", category)
		}
	}

	if episodeTypes, _ := cmd.Flags().GetStringSlice("episode-types"); len(episodeTypes) > 0 {
		for t := range cfg.EpisodeTypes {
			cfg.EpisodeTypes[t] = false
		}
		for _, t := range episodeTypes {
			et := graphview.EpisodeType(strings.ToLower(t))
			if _, ok := cfg.EpisodeTypes[et]; !ok {
				return cfg, fmt.Errorf("unknown episode type %q (valid: document, section, image, table)", t)
			}
			cfg.EpisodeTypes[et] = true
		}
	}

	if entityTypes, _ := cmd.Flags().GetStringSlice("entity-types"); len(entityTypes) > 0 {
		cfg.OtherEntities = false
		for _, t := range entityTypes {
			cfg.EntityTypes[t] = true
		}
	}

	if relationTypes, _ := cmd.Flags().GetStringSlice("relation-types"); len(relationTypes) > 0 {
		cfg.OtherRelations = false
		for _, t := range relationTypes {
			cfg.RelationTypes[t] = true
		}
	}

	return cfg, nil
}
