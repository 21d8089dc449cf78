package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage graph entities and relationships",
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities in a knowledge base",
	RunE:  runEntityList,
}

var entityCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityCreate,
}

var entityUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityUpdate,
}

var entityDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entity and its relationships",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityDelete,
}

var entityImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-import entities from a CSV or JSON file",
	Long: `Imports entities from a file. The format is taken from the file
extension (.csv or .json) unless --format is given. Imports are
partial-success: valid rows are created and rejected rows are reported
individually.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntityImport,
}

var relListCmd = &cobra.Command{
	Use:   "relations",
	Short: "List relationships in a knowledge base",
	RunE:  runRelList,
}

var relCreateCmd = &cobra.Command{
	Use:   "relate <source-id> <type> <target-id>",
	Short: "Create a relationship between two entities",
	Args:  cobra.ExactArgs(3),
	RunE:  runRelCreate,
}

var relDeleteCmd = &cobra.Command{
	Use:   "unrelate <id>",
	Short: "Delete a relationship",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelDelete,
}

func init() {
	entityCmd.PersistentFlags().Int64("kb", 0, "knowledge base id (overrides config)")

	entityCreateCmd.Flags().String("type", "", "entity type (required)")
	entityCreateCmd.Flags().StringToString("prop", nil, "entity property as key=value (repeatable)")
	entityCreateCmd.MarkFlagRequired("type")

	entityUpdateCmd.Flags().String("name", "", "new name")
	entityUpdateCmd.Flags().String("type", "", "new type")
	entityUpdateCmd.Flags().StringToString("prop", nil, "property to set as key=value (repeatable)")

	entityImportCmd.Flags().String("format", "", "import format: csv or json (default from extension)")

	entityCmd.AddCommand(entityListCmd, entityCreateCmd, entityUpdateCmd,
		entityDeleteCmd, entityImportCmd, relListCmd, relCreateCmd, relDeleteCmd)
	rootCmd.AddCommand(entityCmd)
}

// entityKB resolves the knowledge base id for entity subcommands, which
// inherit the persistent --kb flag.
func entityKB(cmd *cobra.Command) (int64, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}
	kbFlag, _ := cmd.Flags().GetInt64("kb")
	return resolveKB(cfg, kbFlag)
}

func runEntityList(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := entityKB(cmd)
	if err != nil {
		return err
	}
	entities, err := client.ListEntities(context.Background(), kbID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tGROUP")
	for _, e := range entities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Type, e.GroupID)
	}
	return w.Flush()
}

func runEntityCreate(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := entityKB(cmd)
	if err != nil {
		return err
	}
	entityType, _ := cmd.Flags().GetString("type")
	props, _ := cmd.Flags().GetStringToString("prop")

	in := api.Entity{Name: args[0], Type: entityType}
	if len(props) > 0 {
		in.Properties = make(map[string]interface{}, len(props))
		for k, v := range props {
			in.Properties[k] = v
		}
	}
	e, err := client.CreateEntity(context.Background(), kbID, in)
	if err != nil {
		return err
	}
	fmt.Printf("created entity %s (%s)\n", e.ID, e.Name)
	return nil
}

func runEntityUpdate(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	var in api.Entity
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		in.Name = name
	}
	if entityType, _ := cmd.Flags().GetString("type"); entityType != "" {
		in.Type = entityType
	}
	if props, _ := cmd.Flags().GetStringToString("prop"); len(props) > 0 {
		in.Properties = make(map[string]interface{}, len(props))
		for k, v := range props {
			in.Properties[k] = v
		}
	}

	e, err := client.UpdateEntity(context.Background(), args[0], in)
	if err != nil {
		return err
	}
	fmt.Printf("updated entity %s (%s)\n", e.ID, e.Name)
	return nil
}

func runEntityDelete(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	if err := client.DeleteEntity(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted entity %s\n", args[0])
	return nil
}

func runEntityImport(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := entityKB(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".csv":
			format = "csv"
		case ".json":
			format = "json"
		default:
			return fmt.Errorf("cannot infer format from %q; pass --format csv or --format json", args[0])
		}
	}
	if format != "csv" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	result, err := client.ImportEntities(context.Background(), kbID, format, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d entit(ies)\n", result.Created)
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%d row(s) rejected:\n", len(result.Errors))
		for _, rowErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "  row %d: %s\n", rowErr.Row, rowErr.Message)
		}
		return fmt.Errorf("%d of %d row(s) failed", len(result.Errors), result.Created+len(result.Errors))
	}
	return nil
}

func runRelList(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := entityKB(cmd)
	if err != nil {
		return err
	}
	rels, err := client.ListRelationships(context.Background(), kbID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTYPE\tTARGET")
	for _, rel := range rels {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rel.ID, rel.SourceID, rel.Type, rel.TargetID)
	}
	return w.Flush()
}

func runRelCreate(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := entityKB(cmd)
	if err != nil {
		return err
	}
	rel, err := client.CreateRelationship(context.Background(), kbID, api.Relationship{
		SourceID: args[0],
		Type:     args[1],
		TargetID: args[2],
	})
	if err != nil {
		return err
	}
	out, _ := json.Marshal(rel)
	fmt.Printf("created relationship %s\n", out)
	return nil
}

func runRelDelete(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	if err := client.DeleteRelationship(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted relationship %s\n", args[0])
	return nil
}
