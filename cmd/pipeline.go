package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/pipeline"
	"github.com/graphdesk/graphdesk/internal/poller"
	"github.com/graphdesk/graphdesk/internal/progress"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run pipeline stages on uploaded documents",
	Long: `Drives a document through the processing pipeline. Each stage
requires the document to be in a status that stage accepts; "run"
executes every remaining stage in order and waits for processing to
finish.`,
}

var pipelineParseCmd = &cobra.Command{
	Use:   "parse <id>",
	Short: "Parse an uploaded document into markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineParse,
}

var pipelineVersionCmd = &cobra.Command{
	Use:   "version <id>",
	Short: "Snapshot the parsed content as a new version",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineVersion,
}

var pipelineSplitCmd = &cobra.Command{
	Use:   "split <id>",
	Short: "Chunk the parsed content into sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineSplit,
}

var pipelineProcessCmd = &cobra.Command{
	Use:   "process <id>",
	Short: "Build graph episodes from the chunked document",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineProcess,
}

var pipelineCommunitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Rebuild community detection over the knowledge base graph",
	RunE:  runPipelineCommunities,
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Run every remaining stage for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineRun,
}

func init() {
	pipelineCmd.PersistentFlags().Int64("kb", 0, "knowledge base id (overrides config)")
	pipelineSplitCmd.Flags().String("strategy", "", "split strategy (overrides config)")
	pipelineRunCmd.Flags().String("strategy", "", "split strategy (overrides config)")
	pipelineProcessCmd.Flags().Bool("wait", true, "wait for the processing task to finish")

	pipelineCmd.AddCommand(pipelineParseCmd)
	pipelineCmd.AddCommand(pipelineVersionCmd)
	pipelineCmd.AddCommand(pipelineSplitCmd)
	pipelineCmd.AddCommand(pipelineProcessCmd)
	pipelineCmd.AddCommand(pipelineCommunitiesCmd)
	pipelineCmd.AddCommand(pipelineRunCmd)
	rootCmd.AddCommand(pipelineCmd)
}

// pipelineClient resolves config, store and an authenticated client.
func pipelineClient() (*api.Client, *poller.Poller, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := requireAuthClient(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	p := poller.New(client,
		poller.WithInterval(time.Duration(cfg.PollIntervalSecs)*time.Second),
		poller.WithMaxPolls(cfg.PollMaxAttempts),
	)
	return client, p, func() { store.Close() }, nil
}

func runPipelineParse(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	result, err := client.ParseDocument(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Parsed document %d (%d bytes of markdown)\n", result.UploadID, len(result.Content))
	return nil
}

func runPipelineVersion(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	v, err := client.CreateVersion(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Created version %d of document %d\n", v.Number, v.UploadID)
	return nil
}

func runPipelineSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	strategy, _ := cmd.Flags().GetString("strategy")
	if strategy == "" {
		strategy = string(cfg.SplitStrategy)
	}

	result, err := client.SplitDocument(context.Background(), id, strategy)
	if err != nil {
		return err
	}
	fmt.Printf("Split document %d into %d section(s), %d tokens total\n",
		result.UploadID, result.Statistics.TotalSections, result.Statistics.TotalTokens)
	if verbose {
		for _, s := range result.Sections {
			fmt.Fprintf(os.Stderr, "  [%d] %s (%d tokens)\n", s.Index, s.Title, s.TokenCount)
		}
	}
	return nil
}

func runPipelineProcess(cmd *cobra.Command, args []string) error {
	client, p, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	ctx := context.Background()

	taskID, err := client.ProcessDocument(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Processing started (task %s)\n", taskID)

	wait, _ := cmd.Flags().GetBool("wait")
	if !wait {
		return nil
	}
	result, err := waitForProcessing(ctx, p, taskID)
	if err != nil {
		return err
	}
	fmt.Printf("Processing complete: group %s, %d episode(s) from %d section(s)\n",
		result.DocumentID, result.TotalEpisodes, result.TotalSections)
	return nil
}

func runPipelineCommunities(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, p, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}
	ctx := context.Background()

	taskID, err := client.BuildCommunities(ctx, kbID)
	if err != nil {
		return err
	}
	fmt.Printf("Community build started (task %s)\n", taskID)

	task, err := p.Wait(ctx, taskID, nil)
	if err != nil {
		return err
	}
	if task.Status != api.TaskCompleted {
		return fmt.Errorf("community build %s: %s", task.Status, task.Error)
	}
	fmt.Println("Community build complete")
	return nil
}

// runPipelineRun drives one document through every stage it still
// needs, using the tracker to decide which stages apply.
func runPipelineRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, p, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "document")
	if err != nil {
		return err
	}
	strategy, _ := cmd.Flags().GetString("strategy")
	if strategy == "" {
		strategy = string(cfg.SplitStrategy)
	}
	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tracker := pipeline.NewTracker()

	docs, err := client.ListDocuments(ctx, kbID)
	if err != nil {
		return err
	}
	tracker.Update("cli", docs)

	doc, ok := tracker.Document(id)
	if !ok {
		return fmt.Errorf("document %d not found in knowledge base %d", id, kbID)
	}

	reporter := progress.NewReporter()
	reporter.Start(4, fmt.Sprintf("Processing %s", doc.FileName))
	defer reporter.Finish()

	step := 0
	advance := func(msg string) {
		step++
		reporter.Update(step, msg)
	}

	// Parse.
	if tracker.CanProceed(id, pipeline.StageParse) {
		if _, err := client.ParseDocument(ctx, id); err != nil {
			return fmt.Errorf("parse stage: %w", err)
		}
		tracker.MarkStatus(id, pipeline.StatusParsed)
	}
	advance("parsed")

	// Version the parsed content before chunking touches it.
	if tracker.CanProceed(id, pipeline.StageVersion) {
		if _, err := client.CreateVersion(ctx, id); err != nil {
			return fmt.Errorf("version stage: %w", err)
		}
	}

	// Split.
	if tracker.CanProceed(id, pipeline.StageSplit) {
		if _, err := client.SplitDocument(ctx, id, strategy); err != nil {
			return fmt.Errorf("split stage: %w", err)
		}
		tracker.MarkStatus(id, pipeline.StatusChunked)
	}
	advance("chunked")

	// Process.
	if !tracker.CanProceed(id, pipeline.StageProcess) {
		return fmt.Errorf("document %d cannot be processed from its current status", id)
	}
	taskID, err := client.ProcessDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("process stage: %w", err)
	}
	advance("processing")

	result, err := waitForProcessing(ctx, p, taskID)
	if err != nil {
		return err
	}
	tracker.MarkCompleted(id, pipeline.StatusCompleted, result.DocumentID)
	advance("completed")

	fmt.Printf("\nDocument %d complete: group %s, %d episode(s) from %d section(s)\n",
		id, result.DocumentID, result.TotalEpisodes, result.TotalSections)
	return nil
}

// waitForProcessing polls a process_document task to completion and
// decodes its result payload.
func waitForProcessing(ctx context.Context, p *poller.Poller, taskID string) (*api.ProcessResult, error) {
	var onUpdate func(*api.Task)
	if verbose {
		onUpdate = func(t *api.Task) {
			fmt.Fprintf(os.Stderr, "task %s: %s %.0f%% %s\n", t.TaskID, t.Status, t.Progress*100, t.CurrentStep)
		}
	}

	task, err := p.Wait(ctx, taskID, onUpdate)
	if err != nil {
		return nil, fmt.Errorf("waiting for task %s: %w", taskID, err)
	}
	if task.Status != api.TaskCompleted {
		return nil, fmt.Errorf("task %s %s: %s", taskID, task.Status, task.Error)
	}

	var result api.ProcessResult
	if err := json.Unmarshal(task.Result, &result); err != nil {
		return nil, fmt.Errorf("decoding task result: %w", err)
	}
	return &result, nil
}
