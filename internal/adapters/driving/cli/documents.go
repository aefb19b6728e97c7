package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// documentsUser is the --user flag for document commands.
var documentsUser string

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage uploaded documents",
	Long:  `List, inspect, or delete uploaded documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	RunE:  runDocumentsList,
}

var documentsStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show ingestion status",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsStatus,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.PersistentFlags().StringVarP(&documentsUser, "user", "u", "default", "Owner of the documents")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsStatusCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), documentsUser)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for user: %s\n", documentsUser)
		return nil
	}

	cmd.Printf("Documents for %s:\n\n", documentsUser)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Filename: %s\n", docs[i].Filename)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsStatus(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	status, err := documentService.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("%s\n", status)
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0], documentsUser); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}
