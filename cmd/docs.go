package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/progress"
	"github.com/graphdesk/graphdesk/internal/uploader"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents in a knowledge base",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with their pipeline status",
	RunE:  runDocsList,
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload documents",
	Long: `Uploads the given files, or with --dir scans a directory for
parseable documents using the configured include/exclude globs.`,
	RunE: runDocsUpload,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its pipeline artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

var docsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a document's parsed markdown content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

func init() {
	docsCmd.PersistentFlags().Int64("kb", 0, "knowledge base id (overrides config)")
	docsUploadCmd.Flags().String("dir", "", "scan this directory instead of naming files")
	docsUploadCmd.Flags().StringSlice("include", nil, "include glob patterns (overrides config)")
	docsUploadCmd.Flags().StringSlice("exclude", nil, "extra exclude glob patterns")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsShowCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
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

	docs, err := client.ListDocuments(context.Background(), kbID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSIZE\tSTATUS\tGROUP")
	for _, d := range docs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", d.ID, d.FileName, d.Size, d.Status, d.DocumentID)
	}
	return w.Flush()
}

func runDocsUpload(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	dir, _ := cmd.Flags().GetString("dir")

	if dir == "" {
		// Explicit file arguments.
		if len(args) == 0 {
			return fmt.Errorf("name files to upload, or pass --dir to scan a directory")
		}
		for _, path := range args {
			doc, err := client.UploadDocument(ctx, kbID, path)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}
			fmt.Printf("Uploaded %s as document %d (%s)\n", path, doc.ID, doc.Status)
		}
		return nil
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	if len(include) == 0 {
		include = cfg.Include
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	exclude = append(append([]string{}, cfg.Exclude...), exclude...)

	files, err := uploader.Select(uploader.SelectConfig{
		RootDir: dir,
		Include: include,
		Exclude: exclude,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Selected %d document(s) under %s\n", len(files), dir)
	}

	result, err := uploader.UploadAll(ctx, client, kbID, files, progress.NewReporter())
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %d document(s)\n", len(result.Uploaded))
	for _, f := range result.Failed {
		fmt.Fprintf(os.Stderr, "failed: %s: %v\n", f.File.RelPath, f.Err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d upload(s) failed", len(result.Failed))
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
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

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	if err := client.DeleteDocument(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
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

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	content, err := client.GetDocumentContent(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Println(content)
	return nil
}
