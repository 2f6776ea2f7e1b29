package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrInvalidConfig is returned when validation finds any problem.
var ErrInvalidConfig = errors.New("configuration is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without contacting any source",
	Annotations: map[string]string{
		annotationSkipServices: "true",
	},
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	problems, credErr := appConfig.Check()
	p := newPalette(cmd.OutOrStdout())

	if credErr != nil {
		cmd.Println(p.failed.Render("credentials: " + credErr.Error()))
	}
	bad := make(map[string]bool, len(problems))
	for _, prob := range problems {
		bad[prob.Source] = true
	}
	for _, src := range appConfig.Sources {
		if !bad[src.Name] {
			cmd.Printf("%s %s\n", p.name.Render(src.Name), p.ok.Render("ok"))
		}
	}
	for _, prob := range problems {
		cmd.Printf("%s %s\n", p.name.Render(prob.Source), p.failed.Render(prob.Err.Error()))
	}

	if credErr != nil || len(problems) > 0 {
		return ErrInvalidConfig
	}
	cmd.Printf("%d sources valid.\n", len(appConfig.Sources))
	return nil
}
