package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newIDsCmd exposes the identifier grammar: parse, validate, and format
// entity identifiers from the command line.
func newIDsCmd(loadConfig configFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Work with entity identifiers",
	}

	parseCmd := &cobra.Command{
		Use:   "parse <identifier>",
		Short: "Parse an identifier into its components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			grammar, err := cfg.Grammar()
			if err != nil {
				return err
			}
			c, ok := grammar.Parse(args[0])
			if !ok {
				return fmt.Errorf("%q does not match the identifier grammar", args[0])
			}
			fmt.Printf("prefix: %s\n", c.Prefix)
			if c.Namespace != "" {
				fmt.Printf("namespace: %s\n", c.Namespace)
			}
			fmt.Printf("type: %s (%s)\n", c.Type, grammar.TypeName(args[0]))
			fmt.Printf("number: %s\n", c.Number)
			return nil
		},
	}

	var namespace string
	formatCmd := &cobra.Command{
		Use:   "format <type-code> <number>",
		Short: "Format an identifier from components",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			grammar, err := cfg.Grammar()
			if err != nil {
				return err
			}
			id, err := grammar.Format(args[0], args[1], namespace)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	formatCmd.Flags().StringVar(&namespace, "namespace", "", "Associated-repository code")

	refsCmd := &cobra.Command{
		Use:   "refs <field-value>",
		Short: "Expand a reference field into fully-qualified identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			grammar, err := cfg.Grammar()
			if err != nil {
				return err
			}
			refs := grammar.ExtractReferenceList(args[0])
			if len(refs) == 0 {
				fmt.Println("(no references)")
				return nil
			}
			fmt.Println(strings.Join(refs, "\n"))
			return nil
		},
	}

	cmd.AddCommand(parseCmd, formatCmd, refsCmd)
	return cmd
}
