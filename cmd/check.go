package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/subject"
	"github.com/socraticlabs/socratic/internal/validate"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a question or a hint",
}

var checkQuestionCmd = &cobra.Command{
	Use:   "question <question>",
	Short: "Check that a question is well-posed and answerable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		checker := validate.NewChecker(client, orc, subject.NewClassifier(client))
		res, err := checker.QuestionHasAnswer(ctx, args[0], "", orc != nil)
		if err != nil {
			return err
		}
		printCheckResult(res)
		return nil
	},
}

var checkHintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Check a hint against the student's current step",
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		hintText, _ := cmd.Flags().GetString("hint")
		step, _ := cmd.Flags().GetString("step")
		hintType, _ := cmd.Flags().GetString("type")

		if question == "" || hintText == "" || step == "" {
			return fmt.Errorf("--question, --hint and --step are required")
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
		orc, err := newOracle(cmd)
		if err != nil {
			return err
		}

		checker := validate.NewChecker(client, orc, subject.NewClassifier(client))
		res, err := checker.HintAgainstStep(ctx, question, hintText, step, hintType, orc != nil)
		if err != nil {
			return err
		}
		printCheckResult(res)
		return nil
	},
}

func printCheckResult(res validate.Result) {
	if res.OK {
		fmt.Println(answerStyle.Render("OK"))
	} else {
		fmt.Println(warnStyle.Render("NOT OK"))
	}
	if res.Details != "" {
		fmt.Println(labelStyle.Render("details: ") + res.Details)
	}
	if res.OracleQuery != "" {
		fmt.Println(labelStyle.Render("query:   ") + res.OracleQuery)
	}
	if res.OracleResult != "" {
		fmt.Println(labelStyle.Render("oracle:  ") + res.OracleResult)
	}
}

func init() {
	checkHintCmd.Flags().StringP("question", "q", "", "The question being worked on")
	checkHintCmd.Flags().String("hint", "", "The hint to verify")
	checkHintCmd.Flags().String("step", "", "The student's current step")
	checkHintCmd.Flags().StringP("type", "t", "", "Hint type, if known")

	checkCmd.AddCommand(checkQuestionCmd)
	checkCmd.AddCommand(checkHintCmd)
}
