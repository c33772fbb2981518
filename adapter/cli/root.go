package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	asStudent    string
	asInstructor string
	asAdmin      bool
	jsonOutput   bool
	logger       = zap.NewNop()
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "driverapp",
	Short: "driverapp - driving lesson bookings",
	Long: `driverapp manages driving lesson bookings between students and
instructors: requests, acceptance, payment, cancellation with refunds,
rescheduling and evaluation.

Most commands act on behalf of someone; pass --as-student or
--as-instructor with their id.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Debug("command start",
			zap.String("command", cmd.CommandPath()),
			zap.String("correlation_id", info.correlationID.String()),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			zap.String("command", cmd.CommandPath()),
			zap.String("correlation_id", info.correlationID.String()),
			zap.Int64("duration_ms", time.Since(info.startedAt).Milliseconds()),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&asStudent, "as-student", "", "act as the student with this id")
	rootCmd.PersistentFlags().StringVar(&asInstructor, "as-instructor", "", "act as the instructor with this id")
	rootCmd.PersistentFlags().BoolVar(&asAdmin, "as-admin", false, "act as a platform admin")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	rootCmd.MarkFlagsMutuallyExclusive("as-student", "as-instructor", "as-admin")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

// SetLogger sets the CLI logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Logger returns the CLI logger.
func Logger() *zap.Logger {
	return logger
}
