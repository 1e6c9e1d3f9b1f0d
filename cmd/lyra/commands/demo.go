package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/demo"
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/tasks"
	"github.com/AnatoleLucet/lyra/internal/view"
)

var demoCmd = &cobra.Command{
	Use:   "demo <script.yaml>",
	Short: "Replay demonstrated gestures and print the inferred interactions",
	Long: `Build the document described by a YAML script, replay the signal values of
each demonstration as if the user had performed the gesture on the view,
then print how every gesture was classified and the candidates it yields.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := LoadScript(args[0])
		if err != nil {
			return err
		}
		return runDemo(cmd.OutOrStdout(), script)
	},
}

var (
	heading = color.New(color.Bold, color.FgCyan)
	kindOf  = color.New(color.FgGreen)
	muted   = color.New(color.Faint)
	failure = color.New(color.FgRed)
)

func runDemo(out io.Writer, script *Script) error {
	opts, err := editorOptions(cfg)
	if err != nil {
		return err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = demo.DefaultDebounce
	}
	clock := tasks.NewManual()
	opts.Clock = clock

	v := view.NewLocal(opts.Logger)
	e, err := lyra.New(v, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	built, err := script.Build(e)
	if err != nil {
		return err
	}

	for i, d := range script.Demonstrations {
		if d.Interaction < 0 || d.Interaction >= len(built.Interactions) {
			failure.Fprintf(out, "demonstration %d: no interaction %d\n", i, d.Interaction)
			continue
		}
		id := built.Interactions[d.Interaction]

		if err := e.Demonstrate(id); err != nil {
			return err
		}
		in, err := e.Document().Interaction(id)
		if err != nil {
			return err
		}
		group := scene.ExportName(e.Document().Marks[in.GroupID].Name)

		for _, name := range slices.Sorted(maps.Keys(d.Signals)) {
			v.SetSignal(group, name, d.Signals[name])
		}
		clock.Advance(opts.Debounce)
		e.Pump()

		if err := printDemonstration(out, e, id, in.Name); err != nil {
			return err
		}
		e.StopDemonstration(id)
	}

	return nil
}

func printDemonstration(out io.Writer, e *lyra.Editor, id int, name string) error {
	sels, apps, err := e.Previews(id)
	if err != nil {
		return err
	}
	b, err := e.Binding(id)
	if err != nil {
		return err
	}

	heading.Fprintf(out, "%s\n", name)
	fmt.Fprintf(out, "  kind:         %s\n", kindOf.Sprint(e.Kind(id)))
	if b.Input != nil {
		fmt.Fprintf(out, "  input:        %s\n", b.Input.Mouse)
	}

	var ids []string
	for _, s := range sels {
		ids = append(ids, s.Info().ID)
	}
	fmt.Fprintf(out, "  selections:   %s\n", list(ids))

	ids = ids[:0]
	for _, a := range apps {
		ids = append(ids, a.Info().ID)
	}
	fmt.Fprintf(out, "  applications: %s\n", list(ids))
	fmt.Fprintf(out, "  bubbles:      %s\n", list(e.Bubbles(id)))
	return nil
}

func list(items []string) string {
	if len(items) == 0 {
		return muted.Sprint("none")
	}
	return strings.Join(items, ", ")
}

func init() {
	AddCommand(demoCmd)
}
