package commands

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/view"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <script.yaml>",
	Short: "Compile a document script to a Vega specification",
	Long: `Build the document described by a YAML script, including its confirmed
interactions, and print the Vega specification it compiles to.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := compileScript(args[0])
		if err != nil {
			return err
		}

		var out bytes.Buffer
		if err := json.Indent(&out, spec, "", "  "); err != nil {
			return err
		}
		out.WriteByte('\n')

		if compileOutput == "" {
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		}
		return os.WriteFile(compileOutput, out.Bytes(), 0o644)
	},
}

func compileScript(path string) (json.RawMessage, error) {
	script, err := LoadScript(path)
	if err != nil {
		return nil, err
	}

	opts, err := editorOptions(cfg)
	if err != nil {
		return nil, err
	}

	e, err := lyra.New(view.NewLocal(opts.Logger), opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	if _, err := script.Build(e); err != nil {
		return nil, err
	}
	return e.Spec()
}

func init() {
	AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Write the specification to a file instead of stdout")
}
