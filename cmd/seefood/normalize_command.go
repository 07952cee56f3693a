package main

import (
	"fmt"

	"seefood/internal/core/detection"

	"github.com/spf13/cobra"
)

func newNormalizeCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "normalize <label>...",
		Short:       "Map classifier labels to ingredient tokens",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			type result struct {
				Label    string `json:"label"`
				Token    string `json:"token,omitempty"`
				Accepted bool   `json:"accepted"`
			}

			results := make([]result, 0, len(args))
			rows := make([][]string, 0, len(args))
			for _, label := range args {
				token, ok := detection.Normalize(label)
				results = append(results, result{Label: label, Token: token, Accepted: ok})

				shown := "(rejected)"
				category := ""
				if ok {
					shown = token
					if c, found := detection.CategoryOf(token); found {
						category = string(c)
					}
				}
				rows = append(rows, []string{label, shown, category})
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Label", "Token", "Category"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
