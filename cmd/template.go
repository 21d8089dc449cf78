package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage requirement-document templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a template from a markdown file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateCreate,
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateUpdate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

var templateGenerateCmd = &cobra.Command{
	Use:   "generate <id>",
	Short: "Generate a requirement document from a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateGenerate,
}

func init() {
	templateCreateCmd.Flags().String("file", "", "markdown file with the template content (required)")
	templateCreateCmd.Flags().String("description", "", "template description")
	templateCreateCmd.MarkFlagRequired("file")

	templateUpdateCmd.Flags().String("name", "", "new name")
	templateUpdateCmd.Flags().String("file", "", "markdown file with new content")
	templateUpdateCmd.Flags().String("description", "", "new description")

	templateGenerateCmd.Flags().Int64("kb", 0, "knowledge base id (overrides config)")
	templateGenerateCmd.Flags().Bool("wait", true, "wait for generation to finish")

	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateCreateCmd,
		templateUpdateCmd, templateDeleteCmd, templateGenerateCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	templates, err := client.ListTemplates(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tCREATED")
	for _, t := range templates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Description, t.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	t, err := client.GetTemplate(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Println(t.Content)
	return nil
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	file, _ := cmd.Flags().GetString("file")
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading template content: %w", err)
	}
	description, _ := cmd.Flags().GetString("description")

	t, err := client.CreateTemplate(context.Background(), api.TemplateInput{
		Name:        args[0],
		Description: description,
		Content:     string(content),
	})
	if err != nil {
		return err
	}
	fmt.Printf("created template %d (%s)\n", t.ID, t.Name)
	return nil
}

func runTemplateUpdate(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	ctx := context.Background()
	current, err := client.GetTemplate(ctx, id)
	if err != nil {
		return err
	}

	in := api.TemplateInput{
		Name:        current.Name,
		Description: current.Description,
		Content:     current.Content,
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		in.Name = name
	}
	if description, _ := cmd.Flags().GetString("description"); description != "" {
		in.Description = description
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading template content: %w", err)
		}
		in.Content = string(content)
	}

	t, err := client.UpdateTemplate(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("updated template %d (%s)\n", t.ID, t.Name)
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	if err := client.DeleteTemplate(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("deleted template %d\n", id)
	return nil
}

func runTemplateGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, p, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	taskID, err := client.GenerateFromTemplate(ctx, id, kbID)
	if err != nil {
		return err
	}
	fmt.Printf("generation submitted, task %s\n", taskID)

	if wait, _ := cmd.Flags().GetBool("wait"); !wait {
		return nil
	}
	task, err := p.Wait(ctx, taskID, func(t *api.Task) {
		if verbose {
			fmt.Fprintf(os.Stderr, "task %s: %s %.0f%% %s\n", t.TaskID, t.Status, t.Progress*100, t.CurrentStep)
		}
	})
	if err != nil {
		return err
	}
	if task.Status != api.TaskCompleted {
		return fmt.Errorf("generation ended %s: %s", task.Status, task.Error)
	}
	fmt.Println("generation completed")
	return nil
}
