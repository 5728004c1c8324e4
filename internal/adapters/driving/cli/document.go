package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List indexed documents, inspect their chunks, or delete them.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print a document's chunks in storage order",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document from the index",
	Long:  `Removes every chunk of the document from the vector index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(false); err != nil {
		return err
	}
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	ctx := context.Background()

	docs, err := registryService.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Indexed documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Cite key: %s\n", docs[i].CiteKey)
		if docs[i].Title != "" {
			cmd.Printf("    Title:    %s\n", docs[i].Title)
		}
		if docs[i].Authors != "" {
			cmd.Printf("    Authors:  %s\n", docs[i].Authors)
		}
		if docs[i].Year != 0 {
			cmd.Printf("    Year:     %d\n", docs[i].Year)
		}
		cmd.Printf("    Chunks:   %d\n", docs[i].ChunkCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if err := ensureServices(false); err != nil {
		return err
	}
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	chunks, err := registryService.GetChunks(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Printf("No chunks found for document: %s\n", docID)
		return nil
	}

	cmd.Printf("Chunks for %s:\n\n", docID)
	for i := range chunks {
		cmd.Printf("  [%s] page %d, offsets %d-%d\n",
			chunks[i].ChunkID, chunks[i].Page, chunks[i].Start, chunks[i].End)
		cmd.Printf("    %s\n\n", chunks[i].Text)
	}

	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if err := ensureServices(false); err != nil {
		return err
	}
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	removed, err := registryService.DeleteDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if removed == 0 {
		cmd.Printf("Document %s not found.\n", docID)
		return nil
	}

	cmd.Printf("Deleted document %s (%d chunks removed).\n", docID, removed)
	return nil
}
