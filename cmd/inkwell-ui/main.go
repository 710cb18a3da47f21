// inkwell-ui is the terminal client for the inkwell gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/matiasleandrokruk/inkwell/internal/client"
	"github.com/matiasleandrokruk/inkwell/internal/ui"
	"github.com/matiasleandrokruk/inkwell/internal/version"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("inkwell-ui", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	baseURL := fs.String("url", client.DefaultBaseURL, "Gateway base URL")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Per-request timeout")
	essay := fs.String("essay", "", "Generate one essay about the topic and exit")
	poem := fs.String("poem", "", "Generate one poem about the topic and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["essay"] && set["poem"] {
		fmt.Fprintln(out, "choose one of -essay or -poem") //nolint:errcheck
		return 2
	}

	c := client.New(*baseURL, client.WithTimeout(*timeout))

	switch {
	case set["essay"]:
		return oneShot(out, c, client.RouteEssay, "Essay Generated!", *essay)
	case set["poem"]:
		return oneShot(out, c, client.RoutePoem, "Poem Generated!", *poem)
	}

	if _, err := tea.NewProgram(ui.New(c), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(out, err) //nolint:errcheck
		return 1
	}
	return 0
}

// oneShot mirrors a single panel submit: blank topics warn without calling
// the gateway; failures exit 1.
func oneShot(out io.Writer, c ui.Backend, route client.Route, doneLabel, topic string) int {
	if strings.TrimSpace(topic) == "" {
		warningColor.Fprintln(out, ui.WarnEmptyTopic) //nolint:errcheck
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout+5*time.Second)
	defer cancel()

	res := c.Generate(ctx, route, topic)
	if res.Failed {
		errorColor.Fprintln(out, res.Text) //nolint:errcheck
		return 1
	}
	successColor.Fprintln(out, doneLabel) //nolint:errcheck
	fmt.Fprintln(out)                     //nolint:errcheck
	fmt.Fprintln(out, res.Text)           //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `inkwell-ui - essay and poem generator

Usage:
  inkwell-ui [options]

Without -essay or -poem an interactive terminal UI starts.

Options:
  -url string        Gateway base URL (default http://localhost:8000)
  -timeout duration  Per-request timeout (default 30s)
  -essay string      Generate one essay about the topic and exit
  -poem string       Generate one poem about the topic and exit
  -version           Show version information
  -help              Show this help message

Keys:
  tab     switch panel
  enter   generate for the focused panel
  ctrl+l  clear all
  esc     quit

Examples:
  inkwell-ui
  inkwell-ui -essay "Climate Change"
  inkwell-ui -poem Nature -url http://gateway:8000`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
