package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/logger"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
)

var (
	userID    string
	statsDate string
	shareName string
)

func requireUser(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace a user's data with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	requireUser(cmd)
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := snapshot.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	snap.UserID = userID

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := store.ImportSnapshot(cmd.Context(), snap); err != nil {
		log.Error("import failed", zap.String("file", args[0]), zap.String("user", userID), zap.Error(err))
		return fmt.Errorf("failed to import: %w", err)
	}
	log.Info("snapshot imported",
		zap.String("file", args[0]),
		zap.String("user", userID),
		zap.Int("habits", len(snap.Habits)),
		zap.Int("time_blocks", len(snap.TimeBlocks)),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("shares", len(snap.Shares)),
	)
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's snapshot as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	requireUser(cmd)
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.LoadSnapshot(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}
	return snapshot.Encode(cmd.OutOrStdout(), snap)
}

// =============================================================================
// STATS
// =============================================================================

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print today's habits and agenda",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	requireUser(cmd)
	cmd.Flags().StringVar(&statsDate, "date", "", "day to report on (yyyy-MM-dd, default today)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	today := calendar.DateOf(now)
	if statsDate != "" {
		if today, err = calendar.ParseDate(statsDate); err != nil {
			return err
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.LoadSnapshot(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}

	printStats(cmd.OutOrStdout(), snap, now, today)
	return nil
}

func printStats(w io.Writer, snap *snapshot.Snapshot, now time.Time, today calendar.Date) {
	a := snap.Analytics()
	name := snap.UserName
	if name == "" {
		name = snap.UserID
	}

	fmt.Fprintf(w, "%s, %s\n", calendar.Greeting(now), name)
	fmt.Fprintf(w, "%s\n\n", today.Format("Monday, January 2, 2006"))

	d := a.Dashboard(today, today, habits.ViewWeek)
	fmt.Fprintf(w, "Today:      %d/%d habits\n", d.TodayProgress.Completed, d.TodayProgress.Total)
	fmt.Fprintf(w, "This week:  %d%%\n", d.PeriodStats.Percentage())
	fmt.Fprintf(w, "Best streak: %d\n\n", d.LongestStreak)

	fmt.Fprintln(w, "Habits")
	for _, c := range a.Cards(today) {
		mark := " "
		if c.CompletedToday {
			mark = "x"
		}
		due := ""
		if !c.ScheduledToday {
			due = " (not today)"
		}
		fmt.Fprintf(w, "  [%s] %-24s streak %-3d week %d/%d%s\n",
			mark, c.Habit.Name, c.Streak, c.WeeklyProgress.Completed, c.WeeklyProgress.Total, due)
	}

	day := calendar.Period{Start: today, End: today}
	agenda := planner.Schedule(snap.TimeBlocks, day).WithTasks(snap.Tasks)
	fmt.Fprintf(w, "\nAgenda (%s h)\n", agenda.TotalHours().StringFixed(2))
	occ := agenda.On(today)
	if len(occ) == 0 {
		fmt.Fprintln(w, "  nothing planned")
	}
	for _, o := range occ {
		fmt.Fprintf(w, "  %-18s %s\n", o.Block.TimeRange(), o.Block.Title)
	}

	tasks := agenda.TasksOn(today)
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTasks (%d outstanding)\n", agenda.OutstandingTasks())
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, t.Title)
	}
}

// =============================================================================
// SHARE
// =============================================================================

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Create an accountability share code",
		Args:  cobra.NoArgs,
		RunE:  runShareCmd,
	}
	requireUser(cmd)
	cmd.Flags().StringVar(&shareName, "name", "", "label for the share")
	return cmd
}

func runShareCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	share, err := store.SaveShare(cmd.Context(), userID, shareName)
	if err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Share code: %s\n", share.Code)
	return nil
}
