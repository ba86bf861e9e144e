package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/observability"
	"github.com/jonathan/portfolio/internal/schemas"
)

var (
	validateReport  bool
	validateSchema  bool
	validateVerbose bool
	validateAgainst string
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a resume document against the content schema",
	Long: `Validates the resume document (JSON or JSONC) section by section, the same
check the server runs before rendering. The path defaults to content_path from
the configuration. Use --report to list every violation across the document
instead of stopping at the first failing section.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateReport, "report", false, "Report every violation instead of the first failing section")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Print an overview of the validated content")
	validateCmd.Flags().StringVar(&validateAgainst, "against", "", "Additional JSON Schema file the document must also satisfy")
	validateCmd.Flags().BoolVar(&validateSchema, "schema", false, "Print the JSON Schema for the whole document and exit")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if validateSchema {
		doc, err := content.DocumentSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(doc))
		return err
	}

	path, err := contentPath(cmd, args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}

	if validateReport {
		raw, err := content.Parse(data)
		if err != nil {
			return err
		}
		if err := content.Report(raw); err != nil {
			var ve *schemas.ValidationError
			if errors.As(err, &ve) {
				for _, fe := range ve.Errors {
					fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("%s has %d schema violation(s)", path, len(ve.Errors))
			}
			return err
		}
	}

	resume, err := content.LoadBytes(data)
	if err != nil {
		return err
	}
	if validateAgainst != "" {
		if err := validateExtra(out, validateAgainst, data); err != nil {
			return err
		}
	}
	if validateVerbose {
		observability.NewPrinter(out).PrintResume(resume)
	}

	fmt.Fprintf(out, "✓ %s is a valid resume document\n", path)
	return nil
}

// contentPath resolves the document path from the first argument or the
// configured content_path.
func contentPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, _, err := loadConfig(commandContext(cmd))
	if err != nil {
		return "", err
	}
	return cfg.ContentPath, nil
}

// validateExtra checks the document against a user-supplied schema, printing
// each violation.
func validateExtra(out io.Writer, schemaPath string, data []byte) error {
	extra, err := schemas.CompileFile(schemaPath)
	if err != nil {
		return err
	}
	raw, err := content.Parse(data)
	if err != nil {
		return err
	}
	if err := extra.Validate(raw); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			for _, fe := range ve.Errors {
				fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("document does not satisfy %s", extra.Name())
		}
		return err
	}
	return nil
}
