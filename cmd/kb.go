package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/api"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge bases visible to you",
	RunE:  runKBList,
}

var kbCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBCreate,
}

var kbUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename or re-describe a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBUpdate,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a knowledge base and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

var kbMembersCmd = &cobra.Command{
	Use:   "members <id>",
	Short: "List the members of a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBMembers,
}

var kbAddMemberCmd = &cobra.Command{
	Use:   "add-member <id> <user-id>",
	Short: "Grant a user access to a knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE:  runKBAddMember,
}

var kbRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <id> <user-id>",
	Short: "Revoke a user's access to a knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE:  runKBRemoveMember,
}

func init() {
	kbCreateCmd.Flags().String("description", "", "knowledge base description")
	kbUpdateCmd.Flags().String("name", "", "new name")
	kbUpdateCmd.Flags().String("description", "", "new description")
	kbAddMemberCmd.Flags().String("role", "member", "member role (member, admin)")

	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbCreateCmd)
	kbCmd.AddCommand(kbUpdateCmd)
	kbCmd.AddCommand(kbDeleteCmd)
	kbCmd.AddCommand(kbMembersCmd)
	kbCmd.AddCommand(kbAddMemberCmd)
	kbCmd.AddCommand(kbRemoveMemberCmd)
	rootCmd.AddCommand(kbCmd)
}

// kbClient wires up the config, store and authenticated client shared
// by every kb subcommand.
func kbClient() (*api.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := requireAuthClient(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return client, func() { store.Close() }, nil
}

func runKBList(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	kbs, err := client.ListKnowledgeBases(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, kb := range kbs {
		fmt.Fprintf(w, "%d\t%s\t%s\n", kb.ID, kb.Name, kb.Description)
	}
	return w.Flush()
}

func runKBCreate(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	description, _ := cmd.Flags().GetString("description")
	kb, err := client.CreateKnowledgeBase(context.Background(), api.KnowledgeBaseInput{
		Name:        args[0],
		Description: description,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created knowledge base %d (%s)\n", kb.ID, kb.Name)
	return nil
}

func runKBUpdate(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "knowledge base")
	if err != nil {
		return err
	}

	ctx := context.Background()
	current, err := client.GetKnowledgeBase(ctx, id)
	if err != nil {
		return err
	}

	in := api.KnowledgeBaseInput{Name: current.Name, Description: current.Description}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		in.Name = name
	}
	if description, _ := cmd.Flags().GetString("description"); description != "" {
		in.Description = description
	}

	kb, err := client.UpdateKnowledgeBase(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Printf("Updated knowledge base %d (%s)\n", kb.ID, kb.Name)
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "knowledge base")
	if err != nil {
		return err
	}
	if err := client.DeleteKnowledgeBase(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted knowledge base %d\n", id)
	return nil
}

func runKBMembers(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	id, err := parseID(args[0], "knowledge base")
	if err != nil {
		return err
	}
	members, err := client.ListMembers(context.Background(), id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tNAME\tROLE")
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.UserID, m.Username, m.Role)
	}
	return w.Flush()
}

func runKBAddMember(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := parseID(args[0], "knowledge base")
	if err != nil {
		return err
	}
	userID, err := parseID(args[1], "user")
	if err != nil {
		return err
	}
	role, _ := cmd.Flags().GetString("role")

	if err := client.AddMember(context.Background(), kbID, userID, role); err != nil {
		return err
	}
	fmt.Printf("Added user %d to knowledge base %d as %s\n", userID, kbID, role)
	return nil
}

func runKBRemoveMember(cmd *cobra.Command, args []string) error {
	client, done, err := kbClient()
	if err != nil {
		return err
	}
	defer done()

	kbID, err := parseID(args[0], "knowledge base")
	if err != nil {
		return err
	}
	userID, err := parseID(args[1], "user")
	if err != nil {
		return err
	}

	if err := client.RemoveMember(context.Background(), kbID, userID); err != nil {
		return err
	}
	fmt.Printf("Removed user %d from knowledge base %d\n", userID, kbID)
	return nil
}
