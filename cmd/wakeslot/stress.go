//go:build !wakernosync

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wakeslot/internal/observ"
	"wakeslot/internal/prof"
	"wakeslot/internal/ui"
	"wakeslot/internal/waker"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Hammer a lock-adapted slot from many goroutines",
	Long: `Spin up workers that concurrently register and fire wake handles
through one mutex-adapted slot, then verify the single-entry accounting`,
	RunE: runStress,
}

func init() {
	stressCmd.Flags().Uint64("workers", 0, "concurrent workers (0 = manifest default)")
	stressCmd.Flags().Uint64("ops", 0, "operations per worker (0 = manifest default)")
	stressCmd.Flags().Bool("ui", false, "render live progress")
	stressCmd.Flags().String("cpu-profile", "", "write CPU profile to file")
	stressCmd.Flags().String("mem-profile", "", "write heap profile to file")
	stressCmd.Flags().String("runtime-trace", "", "write runtime execution trace to file")
	rootCmd.AddCommand(stressCmd)
}

type stressResult struct {
	registered uint64
	fired      uint64
	elapsed    time.Duration
}

func runStress(cmd *cobra.Command, args []string) error {
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

	workersU64, err := cmd.Flags().GetUint64("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	perWorker, err := cmd.Flags().GetUint64("ops")
	if err != nil {
		return fmt.Errorf("failed to get ops flag: %w", err)
	}
	withUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	cpuProfile, err := cmd.Flags().GetString("cpu-profile")
	if err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := cmd.Flags().GetString("mem-profile")
	if err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	runtimeTrace, err := cmd.Flags().GetString("runtime-trace")
	if err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	profSession, err := prof.Start(prof.Options{
		CPUPath:   cpuProfile,
		MemPath:   memProfile,
		TracePath: runtimeTrace,
	})
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := profSession.Stop(); stopErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "prof: %v\n", stopErr)
		}
	}()

	timer := observ.NewTimer()
	setupPhase := timer.Begin("setup")

	m, found, err := loadManifest(".")
	if err != nil {
		return err
	}
	if workersU64 == 0 {
		workersU64 = defaultStressWorkers
		if found && m.Config.Stress.Workers > 0 {
			workersU64 = m.Config.Stress.Workers
		}
	}
	if perWorker == 0 {
		perWorker = defaultStressOps
		if found && m.Config.Stress.Ops > 0 {
			perWorker = m.Config.Stress.Ops
		}
	}
	workers, err := safecast.Conv[int](workersU64)
	if err != nil {
		return fmt.Errorf("worker count out of range: %w", err)
	}
	timer.End(setupPhase, fmt.Sprintf("%d workers x %d ops", workers, perWorker))

	hammerPhase := timer.Begin("hammer")
	var result stressResult
	if withUI && !quiet {
		result, err = runStressWithUI(workers, perWorker)
		if err != nil {
			return err
		}
	} else {
		result = runStressHammer(workers, perWorker, nil)
	}
	timer.End(hammerPhase, fmt.Sprintf("%d fires", result.fired))

	if !quiet {
		printStressReport(cmd, workers, perWorker, result)
	}
	if timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if result.fired != result.registered {
		return fmt.Errorf("accounting mismatch: %d handles registered, %d fired", result.registered, result.fired)
	}
	return nil
}

// runStressHammer drives the shared slot with workers goroutines.
// Every registered handle must fire exactly once: either its own
// worker's consuming fire takes it, or a competing registration evicts
// it with a spurious wake. One handle may survive the race; the final
// drain fires it.
func runStressHammer(workers int, perWorker uint64, events chan<- ui.Event) stressResult {
	slot := waker.NewSynced(&waker.Slot{})
	var fired atomic.Uint64

	step := perWorker / 64
	if step == 0 {
		step = 1
	}

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			handle := stressWaker{id: w, fired: &fired}
			var done uint64
			for done < perWorker {
				slot.Register(handle)
				slot.Wake()
				done++
				if events != nil && done%step == 0 {
					postProgress(events, ui.Event{Worker: w, Completed: done})
				}
			}
			if events != nil {
				postProgress(events, ui.Event{Worker: w, Completed: done, Done: true})
			}
			return nil
		})
	}
	_ = g.Wait()
	slot.Wake()

	return stressResult{
		registered: uint64(workers) * perWorker,
		fired:      fired.Load(),
		elapsed:    time.Since(start),
	}
}

func runStressWithUI(workers int, perWorker uint64) (stressResult, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan stressResult, 1)

	go func() {
		res := runStressHammer(workers, perWorker, events)
		outcomeCh <- res
		close(events)
	}()

	model := ui.NewProgressModel("hammering shared slot", workers, perWorker, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	return outcome, uiErr
}

// postProgress never blocks: progress is advisory, and a stalled UI
// must not stall the workers.
func postProgress(events chan<- ui.Event, ev ui.Event) {
	select {
	case events <- ev:
	default:
	}
}

func printStressReport(cmd *cobra.Command, workers int, perWorker uint64, result stressResult) {
	out := cmd.OutOrStdout()
	heading := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgGreen)

	perSec := float64(result.fired) / result.elapsed.Seconds()
	fmt.Fprintf(out, "%s\n", heading.Sprint("stress complete"))
	fmt.Fprintf(out, "  workers:    %s\n", value.Sprintf("%d", workers))
	fmt.Fprintf(out, "  ops/worker: %s\n", value.Sprintf("%d", perWorker))
	fmt.Fprintf(out, "  registered: %s\n", value.Sprintf("%d", result.registered))
	fmt.Fprintf(out, "  fired:      %s\n", value.Sprintf("%d", result.fired))
	fmt.Fprintf(out, "  elapsed:    %s\n", value.Sprint(result.elapsed.Round(time.Microsecond)))
	fmt.Fprintf(out, "  throughput: %s fires/sec\n", value.Sprintf("%.0f", perSec))
}

// stressWaker counts fires. Identity is the worker index, so two
// workers never coalesce and every collision is an eviction.
type stressWaker struct {
	id    int
	fired *atomic.Uint64
}

func (w stressWaker) Wake()      { w.fired.Add(1) }
func (w stressWaker) WakeByRef() { w.fired.Add(1) }

func (w stressWaker) WillWake(other waker.Waker) bool {
	o, ok := other.(stressWaker)
	return ok && o.id == w.id
}

func (w stressWaker) Clone() waker.Waker { return w }
