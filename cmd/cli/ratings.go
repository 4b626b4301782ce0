package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
)

func newRatingCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "rating <platform>",
		Short: "Show this client's rating of a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.showRating(cmd.Context(), domain.Platform(strings.ToLower(args[0])))
		},
	}
}

func (e *cliEnv) showRating(ctx context.Context, platform domain.Platform) error {
	desc, ok := domain.Describe(platform)
	if !ok {
		return fmt.Errorf("unsupported platform %q", platform)
	}

	identity, err := e.identityManager().GetOrCreate(ctx)
	if err != nil {
		return err
	}

	gate := app.NewRatingGate(e.client, identity, platform, e.workflowLogger())
	state, err := gate.Load(ctx)
	if err != nil {
		return err
	}

	if state == domain.RatingAlreadyRated {
		_, value := gate.State()
		fmt.Fprintf(e.out, "You rated %s %s\n", desc.DisplayName, domain.Rating{Value: value})
		return nil
	}
	fmt.Fprintf(e.out, "You have not rated %s yet\n", desc.DisplayName)
	return nil
}

func newAverageCmd(env *cliEnv) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "average [platform]",
		Short: "Show the average rating, overall or for one platform",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return env.showAllAverages(cmd.Context())
			}
			platform := domain.PlatformOverall
			if len(args) == 1 {
				platform = domain.Platform(strings.ToLower(args[0]))
			}
			return env.showAverage(cmd.Context(), platform)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every platform and the overall average")
	return cmd
}

func (e *cliEnv) showAverage(ctx context.Context, platform domain.Platform) error {
	if platform != domain.PlatformOverall && !domain.ValidatePlatform(platform) {
		return fmt.Errorf("unsupported platform %q", platform)
	}

	avg, err := e.client.GetAverageRating(ctx, platform)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %s\n", averageLabel(platform), avg)
	return nil
}

func (e *cliEnv) showAllAverages(ctx context.Context) error {
	platforms := append([]domain.Platform{domain.PlatformOverall}, domain.Platforms...)

	rows := make([][]string, 0, len(platforms))
	for _, p := range platforms {
		avg, err := e.client.GetAverageRating(ctx, p)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			averageLabel(p),
			fmt.Sprintf("%.2f/%d", avg.Average, avg.Scale),
			strconv.Itoa(avg.Total),
		})
	}

	fmt.Fprintln(e.out, renderTable(
		[]string{"Platform", "Average", "Ratings"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	return nil
}

func averageLabel(platform domain.Platform) string {
	if desc, ok := domain.Describe(platform); ok {
		return desc.DisplayName
	}
	return "Overall"
}
