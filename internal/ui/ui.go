package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configure the dashboard runtime.
type Options struct {
	Source Source
	// Statuses feeds poll results into the dashboard until it is closed.
	Statuses <-chan Status
	Input    io.Reader
	Output   io.Writer
	// AltScreen renders in the terminal's alternate screen.
	AltScreen bool
}

// Run starts the dashboard and blocks until ctx is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Source == nil {
		return fmt.Errorf("ui requires a data source")
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(NewModel(opts.Source), progOpts...)

	if opts.Statuses != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case s, ok := <-opts.Statuses:
					if !ok {
						return
					}
					program.Send(StatusMsg(s))
				}
			}
		}()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
