package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings <request>",
	Short: "Interpret a free-form session request into a typed action",
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

		analysis, err := settings.NewAnalyzer(client).Analyze(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(analysis.RequestType))
		if analysis.Notes != "" {
			fmt.Println(labelStyle.Render("notes: ") + analysis.Notes)
		}
		changes, err := json.MarshalIndent(analysis.ParameterChanges, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(changes))
		if analysis.ShouldRegenerate {
			fmt.Println(warnStyle.Render("regenerate the current question"))
		}
		return nil
	},
}
