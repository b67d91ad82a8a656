package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dailybread/internal/content"
	"dailybread/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "status <YYYY-MM>",
		Short: "Show generation progress for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(modeFlag)
			if err != nil {
				return err
			}
			dates, err := pipeline.MonthDates(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			expected := len(cfg.Pipeline.Translations)

			out := cmd.OutOrStdout()
			return ctx.withStore(func(store *content.Store) error {
				for i, mode := range modes {
					records, err := store.ListRecords(cmd.Context(), mode, dates[0], dates[len(dates)-1])
					if err != nil {
						return err
					}
					byDate := make(map[string]content.Record, len(records))
					for _, rec := range records {
						if _, seen := byDate[rec.Date]; !seen {
							byDate[rec.Date] = rec
						}
					}

					rows := make([][]string, 0, len(dates))
					complete := 0
					for _, date := range dates {
						rec, ok := byDate[date]
						if !ok {
							rows = append(rows, []string{date, "-", "", "", "", "", ""})
							continue
						}
						translations, err := store.ListTranslations(cmd.Context(), rec.ID)
						if err != nil {
							return err
						}
						texts, audio, subtitles := countMedia(translations)
						if rec.Status != content.StatusEmpty {
							complete++
						}
						rows = append(rows, []string{
							date,
							string(rec.Status),
							rec.Reference,
							fmt.Sprintf("%d/%d", texts, expected),
							fmt.Sprintf("%d/%d", audio, expected),
							fmt.Sprintf("%d/%d", subtitles, expected),
							yesNo(strings.TrimSpace(rec.MeditationAudioURL) != ""),
						})
					}

					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s %s\n", strings.ToUpper(string(mode)[:1])+string(mode)[1:], args[0])
					fmt.Fprintln(out, renderTableWithFooter(
						[]string{"Date", "Status", "Reference", "Text", "Audio", "Subtitles", "Meditation"},
						rows,
						[]string{"", fmt.Sprintf("%d/%d", complete, len(dates)), "", "", "", "", ""},
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
					))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "devotional", "Content mode: devotional, affirmation or all")
	return cmd
}

func countMedia(translations []content.Translation) (texts, audio, subtitles int) {
	for _, t := range translations {
		if t.HasText() {
			texts++
		}
		if strings.TrimSpace(t.AudioURL) != "" {
			audio++
		}
		if strings.TrimSpace(t.SubtitleURL) != "" {
			subtitles++
		}
	}
	return texts, audio, subtitles
}
