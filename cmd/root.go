package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/sms-sim/sms-sim/sim"
	"github.com/sms-sim/sms-sim/sim/trace"
)

// Exit codes of the run command.
const (
	exitOK          = 0 // completed or cancelled
	exitConfigError = 1
	exitFault       = 2
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

var (
	// CLI flags for the run command
	configPath      string  // Path to a .toml or .yaml config file
	seed            int64   // Master seed for every sender stream
	clockKind       string  // Clock driving the senders: wall or lockstep
	outputFormat    string  // Final report format: text or json
	logLevel        string  // Log verbosity level
	quiet           bool    // Suppress the progress display and config echo
	traceLevel      string  // Send trace level: none or sends
	totalMessages   int     // Number of messages to send
	refreshInterval float64 // Progress refresh interval (seconds)
	parallelism     int     // Max senders allowed (0 = CPU count)
	maxRate         float64 // Global dispatch limit in messages/s (0 = unlimited)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:     "sms-sim",
	Short:   "Concurrent bulk SMS send simulator",
	Version: version,
}

// runCmd executes the simulation using the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the SMS send simulation",
	Long: `Run the simulation with the following settings:

    senders        = 4
    messages       = 1000
    failure_rate   = 0.1
    mean_send_time = 0.1
    sdev_send_time = 0.025
    refresh        = 0.5

These can be configured through a .toml or .yaml file and the --config flag.
Flags override file values only when given explicitly.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		settings, err := resolveSettings(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			if !settings.Quiet {
				fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
			}
			cancel()
		}()

		code := runSimulation(ctx, settings, os.Stdout, os.Stderr)
		signal.Stop(sigCh)
		if code != exitOK {
			os.Exit(code)
		}
	},
}

// runSettings is the effective configuration of one run after the config
// file and flag overrides are merged.
type runSettings struct {
	Config sim.SimulationConfig
	Seed   int64
	Clock  sim.ClockKind
	Output string
	Quiet  bool
	Trace  trace.TraceLevel
}

// resolveSettings starts from the built-in defaults, overlays the config
// file, then applies every flag the user set explicitly.
func resolveSettings(cmd *cobra.Command) (runSettings, error) {
	s := runSettings{
		Config: sim.DefaultSimulationConfig(),
		Seed:   seed,
		Clock:  sim.ClockKind(clockKind),
		Output: outputFormat,
		Quiet:  quiet,
		Trace:  trace.TraceLevel(traceLevel),
	}
	flags := cmd.Flags()

	if configPath != "" {
		f, err := LoadConfigFile(configPath)
		if err != nil {
			return s, err
		}
		s.Config = f.Simulation.Apply(s.Config)
		if f.Simulation.Seed != nil && !flags.Changed("seed") {
			s.Seed = *f.Simulation.Seed
		}
		if f.Simulation.Clock != "" && !flags.Changed("clock") {
			s.Clock = sim.ClockKind(f.Simulation.Clock)
		}
		logrus.Infof("Loaded config file %s", configPath)
	}

	if flags.Changed("messages") {
		s.Config.TotalMessages = totalMessages
	}
	if flags.Changed("refresh") {
		s.Config.RefreshInterval = refreshInterval
	}
	if flags.Changed("parallelism") {
		s.Config.Parallelism = parallelism
	}
	if flags.Changed("max-rate") {
		s.Config.MaxRate = maxRate
	}

	if s.Output != OutputText && s.Output != OutputJSON {
		return s, fmt.Errorf("unknown output format %q (want %s or %s)", s.Output, OutputText, OutputJSON)
	}
	if !trace.IsValidTraceLevel(string(s.Trace)) {
		return s, fmt.Errorf("unknown trace level %q", s.Trace)
	}
	return s, nil
}

// runSimulation runs one simulation and returns the process exit code.
// Progress and the settings echo go to stdout in text mode and to stderr in
// JSON mode, so that stdout carries only the report.
func runSimulation(ctx context.Context, s runSettings, stdout, stderr io.Writer) int {
	info := stdout
	if s.Output == OutputJSON {
		info = stderr
	}
	var progress io.Writer
	if !s.Quiet {
		progress = info
	}

	var st *trace.SendTrace
	if s.Trace == trace.TraceLevelSends {
		st = trace.NewSendTrace(s.Trace)
	}

	simulator, err := sim.NewSimulator(s.Config, sim.Options{
		Seed:     s.Seed,
		Clock:    s.Clock,
		Renderer: newTerminalRenderer(progress, stdout, s.Output),
		Trace:    st,
	})
	if err != nil {
		printConfigErrors(stderr, err)
		return exitConfigError
	}
	if !s.Quiet {
		printSettings(info, s)
	}

	report, err := simulator.Run(ctx)
	if st.Enabled() {
		printTraceSummary(info, trace.Summarize(st, report.TotalMessages), len(s.Config.Senders))
	}
	switch {
	case err != nil:
		logrus.Errorf("Simulation failed: %v", err)
		return exitFault
	case report.Cancelled:
		fmt.Fprintln(info, "Simulation cancelled.")
	default:
		fmt.Fprintln(info, "Simulation Complete. Thanks for flying with us today.")
	}
	return exitOK
}

func printConfigErrors(w io.Writer, err error) {
	fmt.Fprintln(w, "CONFIG ERRORS:")
	var cfgErr *sim.ConfigError
	if !errors.As(err, &cfgErr) {
		fmt.Fprintf(w, "  %v\n", err)
		return
	}
	for _, e := range cfgErr.Errs {
		fmt.Fprintf(w, "  %v\n", e)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to their package-level variables,
// resetting each to its default.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (.toml, .yaml or .yml)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for the sender random streams (whole-run results are reproducible only with --clock lockstep)")
	cmd.Flags().StringVar(&clockKind, "clock", string(sim.ClockWall), "Sender clock: wall (real sleeps) or lockstep (virtual time, fully deterministic)")
	cmd.Flags().StringVar(&outputFormat, "output", OutputText, "Final report format (text, json)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress display and settings echo")
	cmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Send trace level (none, sends)")

	// Overrides for config file values
	cmd.Flags().IntVar(&totalMessages, "messages", sim.DefaultTotalMessages, "Number of messages to send")
	cmd.Flags().Float64Var(&refreshInterval, "refresh", sim.DefaultRefreshInterval, "Progress refresh interval in seconds")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Max senders allowed (0 = CPU count)")
	cmd.Flags().Float64Var(&maxRate, "max-rate", 0, "Global dispatch limit in messages/s (0 = unlimited)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
