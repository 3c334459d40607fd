// Package prompt asks for the serve settings interactively.
package prompt

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// ErrCanceled is returned when the user aborts a prompt.
var ErrCanceled = errors.New("canceled")

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("14")).
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Options are the answers of a prompt session.
type Options struct {
	Path        string
	Port        int
	Since       string
	Until       string
	MaxFiles    int
	OpenBrowser bool
}

// Prompter runs the question flow: repository path, port, optional date
// range, max files and whether to open the browser.
type Prompter struct {
	// Validator checks the repository path before the remaining questions.
	Validator heatmap.RepositoryValidator

	// In and Out default to the process stdin and stdout.
	In  io.Reader
	Out io.Writer

	// Accessible runs plain line-based prompts instead of the TUI.
	Accessible bool
}

// Run asks every question, starting from defaults. A canceled prompt returns
// ErrCanceled; an invalid repository returns the validator's error.
func (p *Prompter) Run(ctx context.Context, defaults Options) (Options, error) {
	opts := defaults
	out := p.out()

	fmt.Fprintln(out, bannerStyle.Render("churnmap"))

	path := cmp.Or(defaults.Path, ".")

	err := p.run(ctx, huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Repository path?").
			Placeholder("./my-repo").
			Value(&path).
			Validate(ValidatePath),
	)))
	if err != nil {
		return Options{}, p.abort(err)
	}

	opts.Path = strings.TrimSpace(path)

	if p.Validator != nil {
		err = p.Validator.Validate(ctx, opts.Path)
		if err != nil {
			fmt.Fprintln(out, errStyle.Render("Not a valid git repository: "+opts.Path))

			return Options{}, fmt.Errorf("validate repository: %w", err)
		}
	}

	port := strconv.Itoa(defaults.Port)
	useDateRange := defaults.Since != "" || defaults.Until != ""

	err = p.run(ctx, huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Server port?").
			Value(&port).
			Validate(ValidatePort),
		huh.NewConfirm().
			Title("Filter by date range?").
			Value(&useDateRange).
			Affirmative("Yes").
			Negative("No"),
	)))
	if err != nil {
		return Options{}, p.abort(err)
	}

	opts.Port = intOr(port, defaults.Port)

	if useDateRange {
		since, until := defaults.Since, defaults.Until

		err = p.run(ctx, huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Since date? (e.g., 2024-01-01, 1 month ago)").
				Placeholder("optional").
				Value(&since),
			huh.NewInput().
				Title("Until date? (e.g., 2024-12-31)").
				Placeholder("optional").
				Value(&until),
		)))
		if err != nil {
			return Options{}, p.abort(err)
		}

		opts.Since, opts.Until = strings.TrimSpace(since), strings.TrimSpace(until)
	} else {
		opts.Since, opts.Until = "", ""
	}

	maxFiles := strconv.Itoa(defaults.MaxFiles)
	openBrowser := defaults.OpenBrowser

	err = p.run(ctx, huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Maximum files to display?").
			Value(&maxFiles).
			Validate(ValidateMaxFiles),
		huh.NewConfirm().
			Title("Open browser automatically?").
			Value(&openBrowser).
			Affirmative("Yes").
			Negative("No"),
	)))
	if err != nil {
		return Options{}, p.abort(err)
	}

	opts.MaxFiles = intOr(maxFiles, defaults.MaxFiles)
	opts.OpenBrowser = openBrowser

	return opts, nil
}

// Summary prints the settings chosen for the run.
func (p *Prompter) Summary(opts Options) {
	out := p.out()

	fmt.Fprintln(out, dimStyle.Render("Repository: "+opts.Path))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Port: %d, max files: %d", opts.Port, opts.MaxFiles)))

	if opts.Since != "" || opts.Until != "" {
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Period: %s to %s", cmp.Or(opts.Since, "start"), cmp.Or(opts.Until, "now"))))
	}
}

func (p *Prompter) run(ctx context.Context, form *huh.Form) error {
	form = form.WithShowHelp(true)

	if p.Accessible {
		form = form.WithAccessible(true).WithInput(p.in()).WithOutput(p.out())
	}

	err := form.RunWithContext(ctx)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	return nil
}

func (p *Prompter) abort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, huh.ErrTimeout) {
		fmt.Fprintln(p.out(), warnStyle.Render("Cancelled"))

		return ErrCanceled
	}

	return err
}

func (p *Prompter) in() io.Reader {
	if p.In != nil {
		return p.In
	}

	return os.Stdin
}

func (p *Prompter) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}

	return os.Stdout
}
