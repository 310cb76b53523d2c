package live

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"llmbench/internal/runner"
)

// Controller runs the live UI and implements runner.Observer.
type Controller struct {
	*runner.ChannelObserver
	done  chan struct{}
	final State
	err   error
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	observer := runner.NewChannelObserver(256)
	model := NewModel(observer.Events(), opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		ChannelObserver: observer,
		done:            make(chan struct{}),
	}
	go func() {
		finalModel, err := program.Run()
		controller.err = err
		if m, ok := finalModel.(Model); ok {
			controller.final = m.State()
		}
		close(controller.done)
		// Keep draining after the UI exits early.
		for range observer.Events() {
		}
	}()
	return controller
}

// Wait blocks until the UI has exited and returns its final state.
func (c *Controller) Wait() (State, error) {
	if c == nil {
		return State{}, nil
	}
	<-c.done
	return c.final, c.err
}
