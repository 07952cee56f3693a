package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"seefood/internal/core/detection"
	"seefood/internal/core/session"
	"seefood/internal/pkg/common"

	"github.com/spf13/cobra"
)

// scanFrame JSONL 每一行：一個畫面的分類結果
type scanFrame struct {
	Labels []detection.ClassificationResult `json:"labels"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var filePath string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Replay recorded frames through the detector and print emissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Detection.ConfidenceThreshold
			}
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("threshold must be within [0,1], got %v", threshold)
			}

			var in io.Reader = cmd.InOrStdin()
			if filePath != "" && filePath != "-" {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open frames: %w", err)
				}
				defer f.Close()
				in = f
			}

			sess := session.New(common.GenerateUUID(), nil)
			analyzer := detection.NewAnalyzer(detection.AnalyzerOptions{
				Threshold:      threshold,
				MaxItems:       cfg.Detection.MaxItems,
				ReemitInterval: cfg.Detection.ReemitInterval,
				OnEmit:         sess.MergeDetected,
			})

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			frameNo := 0
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				frameNo++

				var frame scanFrame
				if err := common.ParseJSON(line, &frame); err != nil {
					return fmt.Errorf("frame %d: %w", frameNo, err)
				}
				result, err := analyzer.Analyze(cmd.Context(), detection.NewFrame(frame.Labels))
				if err != nil {
					return fmt.Errorf("frame %d: %w", frameNo, err)
				}
				if result.Emitted {
					fmt.Fprintf(out, "frame %d: %s\n", frameNo, common.JoinIngredients(result.Ingredients))
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read frames: %w", err)
			}

			snap := sess.Snapshot()
			rows := make([][]string, 0, len(snap.AllSeen))
			for i, token := range snap.AllSeen {
				selected := "no"
				if snap.IsSelected(token) {
					selected = "yes"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), token, selected})
			}

			status := analyzer.Status()
			fmt.Fprintf(out, "%d frames, %d emissions\n", status.ProcessedCount, status.EmittedCount)
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"#", "Ingredient", "Selected"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft}))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "JSONL file of frames ({\"labels\":[{\"label\",\"confidence\"}]} per line); stdin when empty")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.3, "Minimum classifier confidence")
	return cmd
}
