package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/countdown"
	"pomodoro/timer/internal/cycle"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/timer"
)

// NewRunCmd drives a local timer on the system clock until interrupted.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := timerConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			sessions, err := cmd.Flags().GetInt("sessions")
			if err != nil {
				return err
			}
			rawLevel, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			level, err := config.ParseLevel(rawLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			t := timer.New(countdown.New(clock.System{}, countdown.Options{}), cycle.New(cfg), timer.Options{
				Logger: config.NewLogger(level),
			})
			defer t.Close()
			return runTimer(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), t, sessions)
		},
	}
	cmd.Flags().Bool("auto-breaks", false, "start breaks automatically")
	cmd.Flags().Bool("auto-pomodoros", false, "start work sessions automatically")
	cmd.Flags().Int("sessions", 0, "stop after this many finished sessions (0 runs until interrupted)")
	cmd.Flags().String("log-level", "warn", "debug, info, warn or error")
	return cmd
}

// runTimer starts t and prints its events until ctx ends or limit sessions
// have finished. Each input line is a control: an empty
// line toggles, "s" skips, "r" resets and "q" quits.
func runTimer(ctx context.Context, in io.Reader, out io.Writer, t *timer.Timer, limit int) error {
	events, unsubscribe := t.Subscribe(16)
	defer unsubscribe()

	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case commands <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	view := t.State()
	fmt.Fprintf(out, "%s %s (next: %s)\n", view.SessionType, formatRemaining(view.RemainingSeconds), view.NextSessionType)
	t.Start()

	finished := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case command, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			switch command {
			case "q":
				return nil
			case "":
				t.Toggle()
			case "s":
				t.Skip()
			case "r":
				t.Reset()
			default:
				fmt.Fprintf(out, "unknown command %q\n", command)
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if line := describeEvent(event, t.State()); line != "" {
				fmt.Fprint(out, line)
			}
			if event.Type != timer.EventSessionComplete {
				continue
			}
			finished++
			if limit > 0 && finished >= limit {
				return nil
			}
			if event.Transition != nil && !event.Transition.ShouldAutoStart {
				fmt.Fprintf(out, "press Enter to %s\n", nextPrompt(event.Transition.NewType))
			}
		}
	}
}

// describeEvent renders one event. view is the timer state after the event
// and feeds the progress shown on tick lines.
func describeEvent(event timer.Event, view timer.View) string {
	switch event.Type {
	case timer.EventTick:
		return fmt.Sprintf("\r%-11s %s %3.0f%%", event.SessionType, formatRemaining(event.Remaining), view.Progress()*100)
	case timer.EventSessionStart:
		return fmt.Sprintf("\n%s started\n", event.SessionType)
	case timer.EventSessionComplete:
		if event.Transition == nil {
			return ""
		}
		verb := "finished"
		if event.Skipped {
			verb = "skipped"
		}
		return fmt.Sprintf("\n%s %s, %d pomodoros done, next: %s %s\n",
			event.SessionType,
			verb,
			event.Transition.CompletedPomodoros,
			event.Transition.NewType,
			formatRemaining(event.Transition.NewDuration),
		)
	}
	return ""
}

func nextPrompt(next model.SessionType) string {
	if next.IsBreak() {
		return "take your " + sessionLabel(next)
	}
	return "start the next pomodoro"
}

func formatRemaining(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
