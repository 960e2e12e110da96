package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage source databases",
	Long: `Add, list, and remove source database configurations.

A source database maps one remote document database to a mirrored table:
which raw fields become property rows and which become item attributes.

Examples:
  # List configured source databases
  pagemirror sources list

  # Add a source database
  pagemirror sources add --id a1b2c3 --table projects \
    --property "Techstack=techstack" --attribute "Description=description"

  # Remove a source database and its mirrored rows
  pagemirror sources remove a1b2c3`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured source databases",
	RunE:  runSourcesList,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a source database",
	RunE:  runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [database-id]",
	Short: "Remove a source database",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

// Flags for sources add.
var (
	sourcesAddID         string
	sourcesAddTable      string
	sourcesAddProperties map[string]string
	sourcesAddAttributes map[string]string
)

func init() {
	sourcesAddCmd.Flags().StringVar(
		&sourcesAddID, "id", "", "External database ID (required)")
	sourcesAddCmd.Flags().StringVar(
		&sourcesAddTable, "table", "", "Mirrored table name (required)")
	sourcesAddCmd.Flags().StringToStringVar(
		&sourcesAddProperties, "property", nil, "Raw field to property name mapping (repeatable)")
	sourcesAddCmd.Flags().StringToStringVar(
		&sourcesAddAttributes, "attribute", nil, "Raw field to attribute name mapping (repeatable)")
	_ = sourcesAddCmd.MarkFlagRequired("id")
	_ = sourcesAddCmd.MarkFlagRequired("table")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	sources, err := sourceStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No source databases configured.")
		return nil
	}

	cmd.Printf("%-36s %-20s %-12s %-12s %s\n", "ID", "TABLE", "PROPERTIES", "ATTRIBUTES", "LAST SYNCED")
	for _, source := range sources {
		lastSynced := "never"
		if source.LastSynced != nil {
			lastSynced = source.LastSynced.Format(time.RFC3339)
		}
		cmd.Printf("%-36s %-20s %-12d %-12d %s\n",
			source.ID, source.TableName,
			len(source.Fields.Properties), len(source.Fields.Attributes), lastSynced)
	}

	return nil
}

func runSourcesAdd(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	if _, err := sourceStore.Get(context.Background(), sourcesAddID); err == nil {
		return fmt.Errorf("source database %s: %w", sourcesAddID, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check source: %w", err)
	}

	source := domain.SourceDatabase{
		ID:        sourcesAddID,
		TableName: sourcesAddTable,
		Fields: domain.FieldMap{
			Properties: sourcesAddProperties,
			Attributes: sourcesAddAttributes,
		},
	}

	if err := sourceStore.Save(context.Background(), source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}

	cmd.Printf("Source database %s added (table %s).\n", source.ID, source.TableName)
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	databaseID := args[0]
	if err := sourceStore.Delete(context.Background(), databaseID); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	cmd.Printf("Source database %s removed.\n", databaseID)
	return nil
}
