package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/settlement"
	"misicuan-admin/internal/verify"
	"misicuan-admin/migrations"
)

func (c *cli) packagesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "packages [query]",
		Short: "List or search the package catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			pkgs, err := a.Catalog.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pkgs) == 0 {
				fmt.Fprintln(out, "no packages found")
				return nil
			}
			for _, p := range pkgs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", p.ID, p.Category, p.Name, rupiah(p.Price))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum packages to show")
	return cmd
}

func (c *cli) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <feature>...",
		Short: "Show how feature lines are split into missions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := mission.DefaultPackageClassifier()
			out := cmd.OutOrStdout()
			tokens := mission.ParseFeatures(args)
			var bundled []string
			for _, tok := range tokens {
				if !tok.IsActionable {
					fmt.Fprintf(out, "bundled\t%s\n", tok.ActionLabel)
					bundled = append(bundled, tok.ActionLabel)
					continue
				}
				action, reward := classifier.Classify(tok.ActionLabel)
				if tok.UnitPrice != nil {
					reward = *tok.UnitPrice
				}
				bonus := ""
				if tok.IsBonus {
					bonus = " (bonus)"
				}
				fmt.Fprintf(out, "%s\t%d\t%s\t%s%s\n", action, tok.Quantity, tok.ActionLabel, rupiah(reward), bonus)
			}
			if checklist := mission.Checklist(bundled); checklist != "" {
				fmt.Fprintln(out, checklist)
			}
			return nil
		},
	}
}

func (c *cli) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <order-id>",
		Short: "Preview the missions an order would create",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := a.Verifier.Plan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func (c *cli) verifyCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "verify <order-id>",
		Short: "Verify an order and create its missions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			confirmer := promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout(), yes)
			res, err := a.Verifier.Verify(cmd.Context(), args[0], confirmer)
			if res != nil {
				printResult(cmd.OutOrStdout(), res)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <order-id>",
		Short: "Reject a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			if err := a.Verifier.Reject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s rejected\n", args[0])
			return nil
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <order-id>",
		Short: "Move an order back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			if err := a.Verifier.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s is pending again\n", args[0])
			return nil
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd)
			if err != nil {
				return err
			}
			if err := a.Repository.RunMigrations(cmd.Context(), migrations.Files); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func rupiah(amount int64) string {
	return "Rp " + settlement.FormatRupiah(amount)
}

func printPlan(out io.Writer, plan *verify.Plan) {
	o := plan.Order
	fmt.Fprintf(out, "Order %s  %s  %s  [%s]\n", o.ID, o.ClientName, rupiah(o.TotalPrice), o.Status)
	fmt.Fprintf(out, "Package: %s\n", o.PackageName)

	if plan.NeedsManualEntry() {
		m := plan.ManualEntry
		fmt.Fprintf(out, "Manual entry needed: %v\n", plan.Err())
		fmt.Fprintf(out, "  suggestion: %s %s x%d @ %s\n", m.Platform, m.ActionType, m.Quota, rupiah(m.RewardPerUnit))
		return
	}

	fmt.Fprintf(out, "Matched: %s (%s)\n", plan.Package.Name, plan.Strategy)
	if plan.PriceAdvisory != nil {
		fmt.Fprintf(out, "WARNING: order total %s vs package price %s (ratio %.2f)\n",
			rupiah(plan.PriceAdvisory.OrderPrice),
			rupiah(plan.PriceAdvisory.PackagePrice),
			plan.PriceAdvisory.Ratio)
	}
	for i, d := range plan.Drafts() {
		fmt.Fprintf(out, "  %d. %s %s x%d @ %s\n", i+1, d.Platform, d.ActionType, d.Quota, rupiah(d.RewardPerUnit))
	}
	if plan.Materialization.Checklist != "" {
		fmt.Fprintln(out, plan.Materialization.Checklist)
	}
	fmt.Fprintf(out, "Total reward: %s\n", rupiah(plan.TotalReward))
}

func printResult(out io.Writer, res *verify.Result) {
	switch res.Outcome {
	case verify.OutcomeVerified:
		fmt.Fprintf(out, "Verified: %d missions created\n", len(res.Missions))
		for _, cr := range res.Content {
			if cr.Error != "" {
				fmt.Fprintf(out, "  content %s: %s\n", cr.MissionID, cr.Error)
				continue
			}
			fmt.Fprintf(out, "  content %s: %d/%d generated\n", cr.MissionID, cr.Generated, cr.Quantity)
		}
	case verify.OutcomeManualEntry:
		printPlan(out, res.Plan)
	case verify.OutcomeDeclined:
		fmt.Fprintln(out, "Cancelled, nothing was written")
	}
}
