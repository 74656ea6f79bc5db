package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/hint"
	"github.com/socraticlabs/socratic/internal/llm"
)

var hintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Get a tutoring hint for the problem you are stuck on",
	RunE: func(cmd *cobra.Command, args []string) error {
		problem, _ := cmd.Flags().GetString("problem")
		status, _ := cmd.Flags().GetString("status")
		hintType, _ := cmd.Flags().GetString("type")
		history, _ := cmd.Flags().GetStringSlice("given")
		imagePath, _ := cmd.Flags().GetString("image")

		if problem == "" || status == "" {
			return fmt.Errorf("--problem and --status are required")
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

		req := hint.Request{
			Problem:   problem,
			Status:    status,
			History:   history,
			Type:      hintType,
			UseOracle: orc != nil,
		}
		if imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read status image: %w", err)
			}
			req.StatusImage = &llm.Blob{
				MIMEType: http.DetectContentType(data),
				Data:     data,
			}
		}

		resp, err := hint.NewEngine(client, orc).Generate(ctx, req)
		if err != nil {
			return err
		}

		switch resp.Kind {
		case hint.KindFollowup:
			fmt.Println(boxStyle.Render(titleStyle.Render("Follow-up") + "\n\n" + resp.Text))
		default:
			header := "Hint"
			if resp.Type != "" {
				header = "Hint (" + resp.Type + ")"
			}
			fmt.Println(boxStyle.Render(titleStyle.Render(header) + "\n\n" + resp.Text))
			if resp.Verified {
				fmt.Println(labelStyle.Render("verified: " + resp.OracleQuery))
			} else if req.UseOracle {
				fmt.Println(warnStyle.Render("unverified hint"))
			}
		}
		return nil
	},
}

func init() {
	hintCmd.Flags().StringP("problem", "p", "", "The problem being worked on")
	hintCmd.Flags().StringP("status", "s", "", "Where you are stuck, in your own words")
	hintCmd.Flags().StringP("type", "t", "", "Pin a hint type (e.g. 'Strategic')")
	hintCmd.Flags().StringSlice("given", nil, "Hints already given, oldest first")
	hintCmd.Flags().String("image", "", "Path to a photo of your work")
}
