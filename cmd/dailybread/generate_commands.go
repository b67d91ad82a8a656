package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dailybread/internal/app"
	"dailybread/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate daily content",
	}
	generateCmd.AddCommand(newGenerateDayCommand(ctx))
	generateCmd.AddCommand(newGenerateMonthCommand(ctx))
	return generateCmd
}

func newGenerateDayCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Fill in whatever is missing for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(modeFlag)
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printer := newProgressPrinter(out)
			return ctx.withApp(runCtx, func(a *app.App) error {
				var failed []string
				for _, mode := range modes {
					result := a.Day.Run(runCtx, args[0], mode, printer)
					switch {
					case !result.Success:
						failed = append(failed, string(mode))
						fmt.Fprintf(out, "%s %s: failed: %v\n", result.Date, mode, result.Err)
					case result.Skipped:
						fmt.Fprintf(out, "%s %s: already complete\n", result.Date, mode)
					default:
						fmt.Fprintf(out, "%s %s: generated\n", result.Date, mode)
					}
				}
				if len(failed) > 0 {
					return fmt.Errorf("generation failed for %s (re-run to resume)", strings.Join(failed, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "devotional", "Content mode: devotional, affirmation or all")
	return cmd
}

func newGenerateMonthCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "month <YYYY-MM>",
		Short: "Run every day of a month, continuing past failed days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(modeFlag)
			if err != nil {
				return err
			}
			if _, err := pipeline.MonthDates(args[0]); err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printer := newProgressPrinter(out)
			return ctx.withApp(runCtx, func(a *app.App) error {
				results := make([]pipeline.MonthResult, 0, len(modes))
				rows := make([][]string, 0, len(modes))
				failed := 0
				for _, mode := range modes {
					result := a.Month.Run(runCtx, args[0], mode, printer)
					results = append(results, result)
					failed += result.Failed
					rows = append(rows, []string{
						string(mode),
						fmt.Sprint(result.Generated),
						fmt.Sprint(result.Skipped),
						fmt.Sprint(result.Failed),
						strings.Join(result.FailedDates, " "),
					})
					if result.Err != nil {
						break
					}
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Mode", "Generated", "Skipped", "Failed", "Failed dates"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				for _, result := range results {
					if result.Err != nil {
						return result.Err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d day(s) failed (re-run the month to resume)", failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "devotional", "Content mode: devotional, affirmation or all")
	return cmd
}
