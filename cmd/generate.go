package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/classfile"
	"github.com/socraticlabs/socratic/internal/qgen"
	"github.com/socraticlabs/socratic/internal/session"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a verified practice question",
	RunE: func(cmd *cobra.Command, args []string) error {
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		concepts, _ := cmd.Flags().GetStringSlice("concepts")
		unit, _ := cmd.Flags().GetString("unit")
		cumulative, _ := cmd.Flags().GetBool("cumulative")
		adaptive, _ := cmd.Flags().GetBool("adaptive")
		suggestions, _ := cmd.Flags().GetString("suggestions")
		classPath, _ := cmd.Flags().GetString("class")
		contextPath, _ := cmd.Flags().GetString("context-file")
		attempts, _ := cmd.Flags().GetInt("attempts")
		showAnswer, _ := cmd.Flags().GetBool("show-answer")

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
		orc, err := newOracle(cmd)
		if err != nil {
			return err
		}

		req := qgen.Request{
			Session: session.Parameters{
				DifficultyLevel: difficulty,
				Cumulative:      cumulative,
				Adaptive:        adaptive,
				FocusConcepts:   concepts,
				UnitFocus:       unit,
			},
			Suggestions: suggestions,
			MaxAttempts: attempts,
			UseOracle:   orc != nil,
		}

		if classPath != "" {
			cf, err := classfile.Load(classPath)
			if err != nil {
				return err
			}
			req.ClassFile = cf
		}
		if contextPath != "" {
			text, err := os.ReadFile(contextPath)
			if err != nil {
				return fmt.Errorf("read context file: %w", err)
			}
			req.ContextText = string(text)
		}

		engine := qgen.NewEngine(client, orc, s.QuestionRepo())
		g, err := engine.Generate(ctx, req)
		if err != nil {
			return err
		}

		fmt.Println(boxStyle.Render(
			titleStyle.Render(fmt.Sprintf("Question (difficulty %d)", g.Session.DifficultyLevel)) +
				"\n\n" + g.Question,
		))
		if g.OracleQuery != "" {
			fmt.Println(labelStyle.Render("verified: " + g.OracleQuery))
		}
		if showAnswer {
			fmt.Println(answerStyle.Render("Answer: " + g.Answer))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntP("difficulty", "d", 3, "Difficulty level (1-5)")
	generateCmd.Flags().StringSliceP("concepts", "c", nil, "Concepts to focus on")
	generateCmd.Flags().StringP("unit", "u", "", "Course unit to focus on")
	generateCmd.Flags().Bool("cumulative", false, "Combine multiple concepts per question")
	generateCmd.Flags().Bool("adaptive", false, "Adapt difficulty to recent answers")
	generateCmd.Flags().String("suggestions", "", "Free-form guidance for the generator")
	generateCmd.Flags().String("class", "", "Path to a class file for background context")
	generateCmd.Flags().String("context-file", "", "Path to extracted source material")
	generateCmd.Flags().Int("attempts", 0, "Generation attempts before giving up (default 3)")
	generateCmd.Flags().Bool("show-answer", false, "Print the verified answer")
}
