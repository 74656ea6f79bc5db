package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/classfile"
)

var classFileCmd = &cobra.Command{
	Use:   "classfile",
	Short: "Build and inspect class files",
}

var classFileBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a class file from syllabus and problem text",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		syllabusPath, _ := cmd.Flags().GetString("syllabus")
		problemsPath, _ := cmd.Flags().GetString("problems")
		outPath, _ := cmd.Flags().GetString("out")

		if outPath == "" {
			return fmt.Errorf("--out is required")
		}
		if syllabusPath == "" && problemsPath == "" {
			return fmt.Errorf("at least one of --syllabus or --problems is required")
		}

		var syllabusText, problemsText string
		if syllabusPath != "" {
			data, err := os.ReadFile(syllabusPath)
			if err != nil {
				return fmt.Errorf("read syllabus: %w", err)
			}
			syllabusText = string(data)
		}
		if problemsPath != "" {
			data, err := os.ReadFile(problemsPath)
			if err != nil {
				return fmt.Errorf("read problems: %w", err)
			}
			problemsText = string(data)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		client, err := newClient(ctx, s)
		if err != nil {
			return err
		}

		cf, err := classfile.NewBuilder(client).Build(ctx, syllabusText, problemsText, name)
		if err != nil {
			return err
		}
		if err := classfile.Save(outPath, cf); err != nil {
			return err
		}

		fmt.Printf("%s: %d units, %d concepts, %d practice problems\n",
			outPath, len(cf.Syllabus.Units), len(cf.Concepts), len(cf.PracticeProblems))
		return nil
	},
}

var classFileShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a class file summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cf, err := classfile.Load(args[0])
		if err != nil {
			return err
		}

		if cf.ClassName != "" {
			fmt.Println(titleStyle.Render(cf.ClassName))
		}
		for _, u := range cf.Syllabus.Units {
			fmt.Println(labelStyle.Render(u.Title))
			for _, topic := range u.Topics {
				fmt.Println("  - " + topic)
			}
		}
		if len(cf.Concepts) > 0 {
			fmt.Println(labelStyle.Render("Concepts: ") + strings.Join(cf.Concepts, ", "))
		}
		fmt.Printf("%d practice problems, updated %s\n",
			len(cf.PracticeProblems), cf.UpdatedAt.Local().Format("2006-01-02"))
		return nil
	},
}

func init() {
	classFileBuildCmd.Flags().StringP("name", "n", "", "Class name")
	classFileBuildCmd.Flags().String("syllabus", "", "Path to extracted syllabus text")
	classFileBuildCmd.Flags().String("problems", "", "Path to extracted practice problem text")
	classFileBuildCmd.Flags().StringP("out", "o", "", "Where to write the class file")

	classFileCmd.AddCommand(classFileBuildCmd)
	classFileCmd.AddCommand(classFileShowCmd)
}
