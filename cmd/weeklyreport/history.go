package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"weeklyreport/internal/app"
)

var (
	historyLimit int

	skillsCmd = &cobra.Command{
		Use:   "skills",
		Short: "列出可用技能",
		RunE:  runSkills,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "查看最近的导入和生成记录",
		RunE:  runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "显示条数")
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, info, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, info.Path, logger)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// newTable 终端列表统一样式
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func runSkills(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t := newTable("NAME", "TITLE", "SOURCE", "DESCRIPTION")
	for _, s := range a.Skills.List() {
		t.Row(s.Name, s.Title, s.Source, s.Description)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	imports, err := a.Store.ListImportLogs(ctx, historyLimit)
	if err != nil {
		return err
	}
	gens, err := a.Store.ListGenerationLogs(ctx, historyLimit)
	if err != nil {
		return err
	}

	it := newTable("IMPORT", "TIME", "FILE", "SHEET", "ROWS", "IMPORTED", "DROPPED", "STATUS")
	for _, l := range imports {
		it.Row(strconv.FormatInt(l.ID, 10), l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Filename, l.Sheet,
			strconv.Itoa(l.TotalRows), strconv.Itoa(l.ImportedRows), strconv.Itoa(l.DroppedRows), string(l.Status))
	}

	gt := newTable("GENERATION", "TIME", "SKILL", "MODEL", "NARRATIVE", "TASKS", "DURATION")
	for _, l := range gens {
		gt.Row(shortID(l.GenerationID), l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Skill, l.Model,
			string(l.NarrativeStatus), strconv.Itoa(l.TotalTasks), fmt.Sprintf("%dms", l.DurationMs))
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", it.Render(), gt.Render())
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
