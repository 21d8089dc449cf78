package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and control asynchronous backend tasks",
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the current status of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskStatus,
}

var taskWatchCmd = &cobra.Command{
	Use:   "watch <task-id>",
	Short: "Poll a task until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskWatch,
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Request cancellation of a running task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCancel,
}

func init() {
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskWatchCmd)
	taskCmd.AddCommand(taskCancelCmd)
	rootCmd.AddCommand(taskCmd)
}

func printTask(t *api.Task) {
	fmt.Printf("task %s (%s): %s", t.TaskID, t.TaskType, t.Status)
	if t.Progress > 0 {
		fmt.Printf(" %.0f%%", t.Progress*100)
	}
	if t.CurrentStep != "" {
		fmt.Printf(": %s", t.CurrentStep)
	}
	if t.Error != "" {
		fmt.Printf(" (%s)", t.Error)
	}
	fmt.Println()
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	task, err := client.GetTask(context.Background(), args[0])
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func runTaskWatch(cmd *cobra.Command, args []string) error {
	_, p, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	task, err := p.Wait(context.Background(), args[0], func(t *api.Task) {
		if verbose {
			fmt.Fprintf(os.Stderr, "%s %.0f%% %s\n", t.Status, t.Progress*100, t.CurrentStep)
		}
	})
	if err != nil {
		return err
	}
	printTask(task)
	if task.Status != api.TaskCompleted {
		return fmt.Errorf("task ended in status %s", task.Status)
	}
	return nil
}

func runTaskCancel(cmd *cobra.Command, args []string) error {
	client, _, done, err := pipelineClient()
	if err != nil {
		return err
	}
	defer done()

	if err := client.CancelTask(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Cancellation requested for task %s\n", args[0])
	return nil
}
