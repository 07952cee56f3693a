package main

import (
	"fmt"
	"strconv"
	"strings"

	"seefood/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <ingredient>...",
		Short: "Suggest recipes for a list of ingredients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ingredients := common.CleanStrings(args)
			if len(ingredients) == 0 {
				return fmt.Errorf("no ingredients given")
			}

			client, closeFn, err := ctx.suggestionClient()
			if err != nil {
				return err
			}
			defer closeFn()

			result := client.SuggestDetailed(cmd.Context(), ingredients)
			if jsonOutput {
				return writeJSON(cmd, result)
			}

			rows := make([][]string, 0, len(result.Recipes))
			for i, r := range result.Recipes {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					r.Title,
					common.JoinIngredients(r.Ingredients),
					strings.Join(r.Steps, " / "),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"#", "Title", "Ingredients", "Steps"}, rows,
				[]columnAlignment{alignRight}))
			fmt.Fprintf(out, "source: %s\n", result.Source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newNutritionCommand(ctx *commandContext) *cobra.Command {
	var title string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "nutrition --title <title> <ingredient>...",
		Short: "Estimate per-serving nutrition for a recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			title = strings.TrimSpace(title)
			if title == "" {
				return fmt.Errorf("--title is required")
			}

			client, closeFn, err := ctx.suggestionClient()
			if err != nil {
				return err
			}
			defer closeFn()

			recipe := common.Recipe{
				Title:       title,
				Ingredients: common.CleanStrings(args),
			}
			result := client.EstimateNutritionDetailed(cmd.Context(), recipe)
			if jsonOutput {
				return writeJSON(cmd, result)
			}

			n := result.Nutrition
			rows := [][]string{
				{"Calories", strconv.Itoa(n.Calories)},
				{"Protein (g)", strconv.Itoa(n.ProteinGrams)},
				{"Carbs (g)", strconv.Itoa(n.CarbsGrams)},
				{"Fat (g)", strconv.Itoa(n.FatGrams)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{title, "Per serving"}, rows,
				[]columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "source: %s\n", result.Source)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Recipe title")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
