package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wakeslot/internal/asyncrt"
	"wakeslot/internal/observ"
	"wakeslot/internal/trace"
)

// spawnRealSleeper is wired up by the build that carries the locked
// adapter; nil otherwise.
var spawnRealSleeper func(ex *asyncrt.Executor, d time.Duration) asyncrt.TaskID

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a cooperative-scheduling demo on the waker slots",
	Long: `Spawn a producer, a consumer, a periodic ticker, and an aggregator on
the deterministic executor and let them coordinate through single-entry
waker slots`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().Bool("fuzz", false, "randomize scheduling order (reproducible with --seed)")
	demoCmd.Flags().Uint64("seed", 1, "fuzz scheduler seed")
	demoCmd.Flags().Uint64("messages", 0, "messages the producer sends (0 = manifest default)")
	demoCmd.Flags().Uint64("capacity", 0, "channel capacity (0 = manifest default)")
}

type demoReport struct {
	messages  uint64
	sum       uint64
	ticks     uint64
	finalMs   uint64
	realSlept bool
	realWoke  bool
}

func runDemo(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if err := configureColor(cmd); err != nil {
		return err
	}

	fuzz, err := cmd.Flags().GetBool("fuzz")
	if err != nil {
		return fmt.Errorf("failed to get fuzz flag: %w", err)
	}
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return fmt.Errorf("failed to get seed flag: %w", err)
	}
	messages, err := cmd.Flags().GetUint64("messages")
	if err != nil {
		return fmt.Errorf("failed to get messages flag: %w", err)
	}
	capacity, err := cmd.Flags().GetUint64("capacity")
	if err != nil {
		return fmt.Errorf("failed to get capacity flag: %w", err)
	}
	var realSleep time.Duration
	if cmd.Flags().Lookup("real-sleep") != nil {
		realSleep, err = cmd.Flags().GetDuration("real-sleep")
		if err != nil {
			return fmt.Errorf("failed to get real-sleep flag: %w", err)
		}
	}

	manifest, found, err := loadManifest(".")
	if err != nil {
		return err
	}
	if messages == 0 {
		messages = defaultDemoMessages
		if found && manifest.Config.Demo.Messages > 0 {
			messages = manifest.Config.Demo.Messages
		}
	}
	if capacity == 0 {
		capacity = defaultDemoCapacity
		if found && manifest.Config.Demo.Capacity > 0 {
			capacity = manifest.Config.Demo.Capacity
		}
	}

	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	timer := observ.NewTimer()
	phase := timer.Begin("run")

	report := runDemoScenario(demoParams{
		fuzz:      fuzz,
		seed:      seed,
		messages:  messages,
		capacity:  capacity,
		realSleep: realSleep,
		tracer:    tracer,
	})

	timer.End(phase, fmt.Sprintf("%d messages", report.messages))

	if !quiet {
		printDemoReport(cmd, report)
		if ring, ok := ringOf(tracer); ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "recent wake events:")
			for _, ev := range ring.Snapshot() {
				fmt.Fprintln(cmd.ErrOrStderr(), "  "+ev.Line())
			}
		}
	}
	if timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

type demoParams struct {
	fuzz      bool
	seed      uint64
	messages  uint64
	capacity  uint64
	realSleep time.Duration
	tracer    trace.Tracer
}

// runDemoScenario wires four tasks together: a producer feeding a
// bounded channel, a consumer summing it, a ticker counting virtual
// time, and an aggregator awaiting the consumer's result.
func runDemoScenario(p demoParams) demoReport {
	ex := asyncrt.NewExecutor(asyncrt.Config{
		Fuzz:   p.fuzz,
		Seed:   p.seed,
		Tracer: p.tracer,
	})

	ch := ex.ChanNew(p.capacity)

	var realTask asyncrt.TaskID
	if p.realSleep > 0 && spawnRealSleeper != nil {
		realTask = spawnRealSleeper(ex, p.realSleep)
	}

	var next uint64 = 1
	ex.Spawn(func(cx *asyncrt.Context) (any, asyncrt.Poll) {
		for next <= p.messages {
			if !cx.ChanSend(ch, next) {
				return nil, asyncrt.PollPending
			}
			next++
		}
		ex.ChanClose(ch)
		return next - 1, asyncrt.PollReady
	})

	var sum uint64
	consumerTask := ex.Spawn(func(cx *asyncrt.Context) (any, asyncrt.Poll) {
		for {
			val, ok := cx.ChanRecv(ch)
			if ok {
				v, isU64 := val.(uint64)
				if isU64 {
					sum += v
				}
				continue
			}
			if ex.ChanIsClosed(ch) {
				return sum, asyncrt.PollReady
			}
			return nil, asyncrt.PollPending
		}
	})

	// The ticker cancels its own timer once the consumer finishes,
	// otherwise the periodic wakeups would keep the executor from ever
	// going idle.
	var tickerID asyncrt.TimerID
	tickerTask := ex.Spawn(func(cx *asyncrt.Context) (any, asyncrt.Poll) {
		if tickerID == 0 {
			tickerID = cx.TimerEvery(10)
			return nil, asyncrt.PollPending
		}
		if ex.Done(consumerTask) {
			ticks := ex.TimerTicks(tickerID)
			ex.TimerCancel(tickerID)
			return ticks, asyncrt.PollReady
		}
		return nil, asyncrt.PollPending
	})

	var finalSum uint64
	ex.Spawn(func(cx *asyncrt.Context) (any, asyncrt.Poll) {
		result, done := cx.Await(consumerTask)
		if !done {
			return nil, asyncrt.PollPending
		}
		if v, ok := result.(uint64); ok {
			finalSum = v
		}
		return finalSum, asyncrt.PollReady
	})

	ex.RunUntilIdle()

	var ticks uint64
	if t := ex.Task(tickerTask); t != nil {
		if v, ok := t.Result.(uint64); ok {
			ticks = v
		}
	}

	return demoReport{
		messages:  p.messages,
		sum:       finalSum,
		ticks:     ticks,
		finalMs:   ex.NowMs(),
		realSlept: realTask != 0,
		realWoke:  realTask != 0 && ex.Done(realTask),
	}
}

func printDemoReport(cmd *cobra.Command, report demoReport) {
	out := cmd.OutOrStdout()
	heading := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgGreen)

	fmt.Fprintf(out, "%s\n", heading.Sprint("demo complete"))
	fmt.Fprintf(out, "  messages delivered: %s\n", value.Sprintf("%d", report.messages))
	fmt.Fprintf(out, "  sum received:       %s\n", value.Sprintf("%d", report.sum))
	fmt.Fprintf(out, "  ticker fired:       %s times\n", value.Sprintf("%d", report.ticks))
	fmt.Fprintf(out, "  virtual clock:      %s ms\n", value.Sprintf("%d", report.finalMs))
	if report.realSlept {
		status := "woke"
		if !report.realWoke {
			status = "did not wake"
		}
		fmt.Fprintf(out, "  real-time sleeper:  %s\n", value.Sprint(status))
	}
}

// ringOf digs a ring buffer out of the configured tracer, if it keeps
// one.
func ringOf(tracer trace.Tracer) (*trace.RingTracer, bool) {
	switch t := tracer.(type) {
	case *trace.RingTracer:
		return t, true
	case *trace.MultiTracer:
		return t.Ring()
	default:
		return nil, false
	}
}

// configureColor applies the persistent --color flag to the global
// color state.
func configureColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid color mode %q (expected auto|on|off)", mode)
	}
	return nil
}
