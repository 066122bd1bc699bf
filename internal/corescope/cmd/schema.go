package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"corescope/internal/catalog"
	"corescope/internal/session"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the session configuration or, with --catalog-document, for catalog files",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _ := cmd.Flags().GetBool("catalog-document")
		bts, err := schemaJSON(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func schemaJSON(catalogDocument bool) ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	var target any = &session.Config{}
	if catalogDocument {
		target = &catalog.Document{}
	}
	bts, err := json.MarshalIndent(reflector.Reflect(target), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}

func init() {
	schemaCmd.Flags().Bool("catalog-document", false, "Describe the catalog document format instead of the configuration")
	rootCmd.AddCommand(schemaCmd)
}
