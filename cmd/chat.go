package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/chat"
	"github.com/graphdesk/graphdesk/internal/localstore"
	"github.com/graphdesk/graphdesk/internal/pipeline"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive retrieval chat session",
	Long: `Opens an interactive chat over the knowledge base. Answers are
grounded in retrieved graph context; each one is annotated with the
number and kind of supporting items.

Session commands:
  /mode single|multiple|all   switch document-selection mode
  /select <ids...>            select documents by upload id
  /docs                       list available documents
  /sources                    show the retrieval sources of the last answer
  /clear                      clear the transcript
  /quit                       exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int64("kb", 0, "knowledge base id (overrides config)")
	chatCmd.Flags().Bool("ws", false, "use the websocket transport")
	chatCmd.Flags().Bool("no-restore", false, "start with a fresh transcript")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	settings, err := retrievalSettings(cfg, store)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := client.ListDocuments(ctx, kbID)
	if err != nil {
		return err
	}

	var retriever chat.Retriever = client
	if useWS, _ := cmd.Flags().GetBool("ws"); useWS {
		sock, err := client.DialChat(ctx)
		if err != nil {
			return fmt.Errorf("opening chat socket: %w", err)
		}
		defer sock.Close()
		retriever = sock
	}

	conv := chat.NewConversation(retriever, kbID, settings).WithHistory(store)
	conv.SetAvailable(countCompleted(docs))

	if sessionID, err := store.SessionID(kbID); err == nil && sessionID != "" {
		conv.SetSessionID(sessionID)
	}
	if noRestore, _ := cmd.Flags().GetBool("no-restore"); !noRestore {
		if err := conv.Restore(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not restore transcript: %v\n", err)
		}
		for _, msg := range conv.Messages() {
			printChatMessage(msg)
		}
	}

	fmt.Printf("Chatting over knowledge base %d (%d processed documents). /quit to exit.\n",
		kbID, countCompleted(docs))

	return chatLoop(ctx, conv, client, store, kbID, docs)
}

func chatLoop(ctx context.Context, conv *chat.Conversation, client *api.Client, store *localstore.Store, kbID int64, docs []pipeline.Document) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(ctx, conv, client, kbID, &docs, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		msg, err := conv.Send(ctx, line)
		if err != nil {
			if errors.Is(err, chat.ErrBusy) {
				fmt.Fprintln(os.Stderr, "still waiting for the previous answer")
			} else {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			continue
		}
		printChatMessage(*msg)
		if err := store.SetSessionID(kbID, conv.SessionID()); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "warning: could not persist session id: %v\n", err)
		}
	}
}

// runChatCommand handles one /-prefixed session command. The returned
// bool reports whether the loop should exit.
func runChatCommand(ctx context.Context, conv *chat.Conversation, client *api.Client, kbID int64, docs *[]pipeline.Document, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/clear":
		conv.Clear()
		fmt.Println("transcript cleared")

	case "/mode":
		if len(fields) != 2 {
			return false, errors.New("usage: /mode single|multiple|all")
		}
		switch api.SelectionMode(fields[1]) {
		case api.ModeSingle, api.ModeMultiple, api.ModeAll:
			conv.SetMode(api.SelectionMode(fields[1]))
			fmt.Printf("mode set to %s (transcript cleared)\n", fields[1])
		default:
			return false, fmt.Errorf("unknown mode %q", fields[1])
		}

	case "/select":
		if len(fields) < 2 {
			return false, errors.New("usage: /select <upload-ids...>")
		}
		groupIDs, err := selectGroupIDs(*docs, fields[1:])
		if err != nil {
			return false, err
		}
		conv.SetSelection(groupIDs)
		fmt.Printf("%d document(s) selected (transcript cleared)\n", len(groupIDs))

	case "/docs":
		refreshed, err := client.ListDocuments(ctx, kbID)
		if err != nil {
			return false, err
		}
		*docs = refreshed
		conv.SetAvailable(countCompleted(refreshed))
		for _, d := range refreshed {
			marker := " "
			if d.Status == pipeline.StatusCompleted {
				marker = "*"
			}
			fmt.Printf("%s %4d  %-12s  %s\n", marker, d.ID, d.Status, d.FileName)
		}

	case "/sources":
		printLastSources(conv)

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

// selectGroupIDs maps upload ids to graph group ids. Only completed
// documents carry one.
func selectGroupIDs(docs []pipeline.Document, args []string) ([]string, error) {
	byID := make(map[int64]pipeline.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	var groupIDs []string
	for _, arg := range args {
		id, err := parseID(arg, "document")
		if err != nil {
			return nil, err
		}
		doc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no document with id %d", id)
		}
		if doc.DocumentID == "" {
			return nil, fmt.Errorf("document %d (%s) has not finished processing", id, doc.FileName)
		}
		groupIDs = append(groupIDs, doc.DocumentID)
	}
	return groupIDs, nil
}

func countCompleted(docs []pipeline.Document) int {
	n := 0
	for _, d := range docs {
		if d.Status == pipeline.StatusCompleted {
			n++
		}
	}
	return n
}

func printChatMessage(msg chat.Message) {
	switch msg.Role {
	case chat.RoleUser:
		fmt.Printf("you: %s\n", msg.Content)
	case chat.RoleAssistant:
		fmt.Printf("\n%s\n", msg.Content)
		if msg.HasContext {
			fmt.Printf("  (%s)\n\n", sourceSummary(msg.Results))
		} else {
			fmt.Println()
		}
	}
}

func printLastSources(conv *chat.Conversation) {
	msgs := conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != chat.RoleAssistant {
			continue
		}
		if !msgs[i].HasContext {
			fmt.Println("the last answer used no retrieved context")
			return
		}
		printSources(msgs[i].Results)
		return
	}
	fmt.Println("no answers yet")
}

func printSources(results chat.Categorized) {
	printBucket := func(label string, items []api.RetrievalItem) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("%s:\n", label)
		for _, item := range items {
			name := item.Name
			if name == "" {
				name = firstLine(item.Content)
			}
			fmt.Printf("  %.3f  %s\n", item.Score, name)
		}
	}
	printBucket("Communities", results.Communities)
	printBucket("Episodes", results.Episodes)
	printBucket("Relationships", results.Edges)
	printBucket("Entities", results.Entities)
}

// sourceSummary renders the per-category counts of an answer's sources.
func sourceSummary(results chat.Categorized) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(len(results.Communities), "communities")
	add(len(results.Episodes), "episodes")
	add(len(results.Edges), "relationships")
	add(len(results.Entities), "entities")
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
