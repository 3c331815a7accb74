package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamarete/TBBAS/internal/district"
	"github.com/teamarete/TBBAS/internal/matcher"
	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/names"
)

// toolkit is the name-matching library loaded from curated tables only,
// so the data-repair commands need no database
type toolkit struct {
	tables   *names.Tables
	norm     *names.Normalizer
	synonyms *names.SynonymTable
	variants *names.VariantGenerator
	matcher  *matcher.Matcher
}

func loadToolkit(tablesPath string, threshold float64) (*toolkit, error) {
	tables, err := names.LoadTables(tablesPath)
	if err != nil {
		return nil, err
	}
	norm := names.NewNormalizer(tables)
	synonyms := names.NewSynonymTable(tables.Synonyms)
	return &toolkit{
		tables:   tables,
		norm:     norm,
		synonyms: synonyms,
		variants: names.NewVariantGenerator(norm, synonyms),
		matcher:  matcher.New(norm, synonyms, threshold),
	}, nil
}

type toolFlags struct {
	tables    string
	division  string
	threshold float64
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tables, "tables", "", "Curated tables YAML (default: embedded)")
	cmd.Flags().StringVar(&f.division, "division", "", "Division code, e.g. AAAAAA or TAPPS_6A")
	cmd.Flags().Float64Var(&f.threshold, "threshold", matcher.DefaultThreshold, "Similarity threshold")
}

func (f *toolFlags) parseDivision() (models.Division, error) {
	if f.division == "" {
		return "", nil
	}
	return models.ParseDivision(f.division)
}

func matchCmd() *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "match NAME_A NAME_B",
		Short: "Explain whether two names denote the same school",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := loadToolkit(flags.tables, flags.threshold)
			if err != nil {
				return err
			}
			div, err := flags.parseDivision()
			if err != nil {
				return err
			}

			a, b := args[0], args[1]
			ka, kb := tk.norm.Normalize(a), tk.norm.Normalize(b)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key a:       %s\n", ka)
			fmt.Fprintf(out, "key b:       %s\n", kb)
			fmt.Fprintf(out, "similarity:  %.3f\n", matcher.Similarity(ka, kb))
			if div != "" {
				fmt.Fprintf(out, "identity a:  %s\n", tk.matcher.Identity(a, div))
				fmt.Fprintf(out, "identity b:  %s\n", tk.matcher.Identity(b, div))
			}
			fmt.Fprintf(out, "same entity: %t\n", tk.matcher.SameEntity(a, b))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func variantsCmd() *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "variants NAME",
		Short: "List the spellings probed for a name, in priority order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := loadToolkit(flags.tables, flags.threshold)
			if err != nil {
				return err
			}
			div, err := flags.parseDivision()
			if err != nil {
				return err
			}
			for i, v := range tk.variants.Variants(args[0], div) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, v)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func districtCmd() *cobra.Command {
	var flags toolFlags
	var overridesPath, referencePath string
	var minSubstring int
	cmd := &cobra.Command{
		Use:   "district NAME DIVISION",
		Short: "Resolve a school's district through the lookup cascade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := loadToolkit(flags.tables, flags.threshold)
			if err != nil {
				return err
			}
			div, err := models.ParseDivision(args[1])
			if err != nil {
				return err
			}
			overrides, err := district.LoadOverrides(overridesPath)
			if err != nil {
				return err
			}

			var reference []models.DistrictEntry
			if referencePath != "" {
				f, err := os.Open(referencePath)
				if err != nil {
					return fmt.Errorf("failed to open reference: %w", err)
				}
				defer f.Close()
				if reference, err = district.ParseReference(f); err != nil {
					return err
				}
			}

			lookup := district.NewLookup(overrides, reference, tk.norm, tk.variants, minSubstring)
			m, ok := lookup.Find([]string{args[0]}, div)
			if !ok {
				return fmt.Errorf("no district for %q in %s", args[0], div)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", m.District, m.Tier)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "District overrides YAML (default: embedded)")
	cmd.Flags().StringVar(&referencePath, "reference", "", "District reference YAML")
	cmd.Flags().IntVar(&minSubstring, "min-substring", district.DefaultMinSubstringLen, "Minimum key length for substring matches")
	return cmd
}

func lintCmd() *cobra.Command {
	var tablesPath, overridesPath string
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check curated tables for ambiguous synonyms and conflicting overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := loadToolkit(tablesPath, matcher.DefaultThreshold)
			if err != nil {
				return err
			}
			overrides, err := district.LoadOverrides(overridesPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			problems := 0
			for _, a := range tk.synonyms.Ambiguities() {
				fmt.Fprintln(out, a.Error())
				problems++
			}
			for _, c := range overrides.Conflicts() {
				fmt.Fprintf(out, "conflicting %s\n", c)
				problems++
			}

			if problems > 0 {
				return fmt.Errorf("%d curated data problems", problems)
			}
			fmt.Fprintf(out, "ok: %d synonyms, %d district overrides\n", tk.synonyms.Len(), overrides.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&tablesPath, "tables", "", "Curated tables YAML (default: embedded)")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "District overrides YAML (default: embedded)")
	return cmd
}
