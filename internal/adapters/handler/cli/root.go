package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-habits/internal/app"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type options struct {
	configPath string
	file       string
	seed       uint64
	logLevel   string
}

// runtime carries the wired application between the root hooks and the
// subcommands of a single invocation.
type runtime struct {
	opts options
	app  *app.App
}

func (r *runtime) open(cmd *cobra.Command) error {
	cfg, err := config.Load(r.opts.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("file") {
		cfg.Storage.Driver = config.StorageJSON
		cfg.Storage.File = r.opts.file
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = r.opts.seed
	}
	cfg.Log.Level = r.opts.logLevel
	config.ConfigureLogging(cfg.Log)

	r.app, err = app.New(cfg)
	return err
}

func (r *runtime) close() {
	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
}

func habitName(args []string) string {
	return strings.Join(args, " ")
}

// newRootCommand builds the habits command tree. Output goes to out. The app
// opened by a command is left in rt for execute to close.
func newRootCommand(out io.Writer) (*cobra.Command, *runtime) {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "habits",
		Short: "Track daily and weekly habits and analyse your streaks",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.open(cmd)
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&rt.opts.configPath, "config", "config.yaml", "path to the YAML config file")
	flags.StringVarP(&rt.opts.file, "file", "f", "habits.json", "habit file (selects the JSON store)")
	flags.Uint64Var(&rt.opts.seed, "seed", 0, "seed for reproducible example data")
	flags.StringVar(&rt.opts.logLevel, "log-level", "warn", "log level (overrides log.level)")

	root.AddCommand(
		newAddCommand(rt),
		newRemoveCommand(rt),
		newCompleteCommand(rt),
		newListCommand(rt),
		newPeriodicityCommand(rt),
		newPredefinedCommand(),
		newStreaksCommand(rt),
		newStrugglingCommand(rt),
		newLongestRunCommand(rt),
		newTokenCommand(rt),
		newServeCommand(rt),
	)
	return root, rt
}

// execute runs root and closes whatever it opened. cobra skips post-run hooks
// when a command fails, so closing cannot live there.
func execute(ctx context.Context, root *cobra.Command, rt *runtime) error {
	defer rt.close()
	return root.ExecuteContext(ctx)
}

// Run executes the CLI with args, writing command output to out.
func Run(ctx context.Context, out io.Writer, args []string) error {
	root, rt := newRootCommand(out)
	root.SetArgs(args)
	return execute(ctx, root, rt)
}

// Execute runs the CLI on the process arguments and returns the exit code.
func Execute() int {
	if err := Run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		PrintError(os.Stderr, err)
		return 1
	}
	return 0
}

func newAddCommand(rt *runtime) *cobra.Command {
	var (
		period      string
		exampleData bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Long: `Add a habit with a daily or weekly period.

Names from "habits predefined" that end in "(with example data)" are seeded
with four weeks of generated completions, as is any habit added with
--example-data.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := rt.app.Habits.Create(cmd.Context(), services.CreateHabitInput{
				Name:            habitName(args),
				Period:          period,
				WithExampleData: exampleData,
			})
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Habit '%s' added (%s, %d completions).", h.Name, h.Period, len(h.Completions))
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "daily", "daily or weekly")
	cmd.Flags().BoolVar(&exampleData, "example-data", false, "seed the habit with generated completions")
	return cmd
}

func newRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a habit and its completions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := habitName(args)
			if err := rt.app.Habits.Remove(cmd.Context(), name); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Habit '%s' removed.", name)
			return nil
		},
	}
}

func newCompleteCommand(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:     "complete <name>",
		Aliases: []string{"done"},
		Short:   "Mark a habit as completed today",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := habitName(args)

			var (
				recorded bool
				err      error
			)
			if date != "" {
				day, parseErr := domain.ParseDate(date)
				if parseErr != nil {
					return fmt.Errorf("--date: %w", parseErr)
				}
				recorded, err = rt.app.Habits.CompleteOn(ctx, name, day)
			} else {
				recorded, err = rt.app.Habits.Complete(ctx, name)
			}
			if err != nil {
				return err
			}

			if !recorded {
				if date == "" {
					muted(cmd.OutOrStdout(), "Habit already completed for today.")
				} else {
					muted(cmd.OutOrStdout(), "Habit already completed on %s.", date)
				}
				return nil
			}
			success(cmd.OutOrStdout(), "Habit '%s' completed.", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "record the completion on YYYY-MM-DD instead of today")
	return cmd
}

func newListCommand(rt *runtime) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked habits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			habits, err := rt.app.Habits.ListByPeriod(cmd.Context(), period)
			if err != nil {
				return err
			}
			renderHabitList(cmd.OutOrStdout(), habits)
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "only show daily or weekly habits")
	return cmd
}

func newPeriodicityCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "periodicity",
		Short: "Group habit names by period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := rt.app.Habits.GroupByPeriod(cmd.Context())
			if err != nil {
				return err
			}
			renderPeriodGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
}

func newPredefinedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "predefined",
		Short: "Show the predefined habit names",
		// No store needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			renderNames(cmd.OutOrStdout(), "Predefined habits:", services.PredefinedHabits())
		},
	}
}

func newStreaksCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "streaks [name]",
		Short: "Show streaks for one habit, or for all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) > 0 {
				summary, err := rt.app.Streaks.Summary(ctx, habitName(args))
				if err != nil {
					return err
				}
				renderSummary(cmd.OutOrStdout(), summary)
				return nil
			}

			report, err := rt.app.Streaks.Report(ctx)
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newStrugglingCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "struggling",
		Short: "Show the habits with the lowest and highest average streak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ranking, err := rt.app.Streaks.Ranking(cmd.Context())
			if err != nil {
				return err
			}
			renderRanking(cmd.OutOrStdout(), ranking)
			return nil
		},
	}
}

func newLongestRunCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "longest-run",
		Short: "Show the habit with the longest run of consecutive completions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, ok, err := rt.app.Streaks.LongestRun(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				muted(cmd.OutOrStdout(), "No habits tracked yet.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Longest run: %s\n", habitStyle.Render(name))
			return nil
		},
	}
}

var errAuthDisabled = errors.New("auth.secret is not configured (set KANSO_AUTH_SECRET)")

func newTokenCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.app.Tokens == nil {
				return errAuthDisabled
			}
			token, err := rt.app.Tokens.GenerateToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.app.Serve(ctx)
		},
	}
}
