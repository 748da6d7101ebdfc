package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verbatlas/pagegen/pkg/compose"
)

func newComposeCmd() *cobra.Command {
	var (
		tocFile      string
		sectionsFile string
		cssFile      string
		templateName string
		templatesDir string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Stitch fragment files into a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			toc, err := readFragment(tocFile)
			if err != nil {
				return err
			}
			sections, err := readFragment(sectionsFile)
			if err != nil {
				return err
			}
			css := ""
			if cssFile != "" {
				if css, err = readFragment(cssFile); err != nil {
					return err
				}
			}

			var options []compose.Option
			if templatesDir != "" {
				options = append(options, compose.WithTemplatesDir(templatesDir))
			}

			page, err := compose.New(options...).ComposeStandard(cmd.Context(), toc, sections,
				compose.WithCriticalCSS(css),
				compose.WithTemplate(templateName),
			)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), page)
				return nil
			}
			if err := os.WriteFile(output, []byte(page), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&tocFile, "toc", "", "file holding the table-of-contents fragment")
	cmd.Flags().StringVar(&sectionsFile, "sections", "", "file holding the verb-sections fragment")
	cmd.Flags().StringVar(&cssFile, "css", "", "file holding critical CSS (optional)")
	cmd.Flags().StringVar(&templateName, "template", compose.DefaultTemplateName, "template name")
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "templates directory (embedded bundle if empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	_ = cmd.MarkFlagRequired("toc")
	_ = cmd.MarkFlagRequired("sections")
	return cmd
}

func readFragment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read fragment %s: %w", path, err)
	}
	return string(data), nil
}
