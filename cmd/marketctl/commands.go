package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statusColors = map[models.Status]color.Attribute{
	models.StatusPending:  color.FgYellow,
	models.StatusReview:   color.FgCyan,
	models.StatusApproved: color.FgGreen,
	models.StatusRejected: color.FgRed,
}

func colorStatus(s models.Status) string {
	return color.New(statusColors[s]).Sprint(string(s))
}

func appsCmd(rt *runtime) *cobra.Command {
	var status, vendor string
	cmd := &cobra.Command{
		Use:     "apps",
		Short:   "List apps",
		Example: "marketctl apps --status pending",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apps := rt.store.Apps()
			if status != "" {
				if !models.Status(status).Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				apps = views.ByStatus(apps, models.Status(status))
			}
			if vendor != "" {
				apps = views.VendorApps(apps, vendor)
			}
			return renderApps(cmd.OutOrStdout(), apps)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only apps with this status (pending, review, approved, rejected)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "only apps of this vendor id")
	return cmd
}

func renderApps(w io.Writer, apps []models.App) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Vendor", "Category", "Status", "Price", "Downloads", "Mature")
	for _, a := range apps {
		mature := ""
		if a.IsMature {
			mature = "yes"
		}
		if err := table.Append([]string{
			a.ID, a.Name, a.VendorName, a.Category, colorStatus(a.Status),
			a.Price.String(), a.Metrics.Downloads.String(), mature,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// decisionCmd builds approve and reject; verb is the command name.
func decisionCmd(rt *runtime, verb string) *cobra.Command {
	status := models.StatusApproved
	if verb == "reject" {
		status = models.StatusRejected
	}
	return &cobra.Command{
		Use:   verb + " <app-id>",
		Short: fmt.Sprintf("Mark an app %s and notify its vendor", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.moderation.SetStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", app.Name, colorStatus(app.Status), app.ID)
			return nil
		},
	}
}

func tierCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "tier <vendor-id> <standard|premium>",
		Short:   "Change a vendor's subscription tier",
		Example: "marketctl tier 1 premium",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vendor, err := rt.subscriptions.ChangeTier(cmd.Context(), args[0], models.Tier(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", vendor.BusinessName, color.New(color.Bold).Sprint(vendor.Subscription))
			return nil
		},
	}
}

func resetCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace every collection with the seed data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset discards all listings, vendors and users; pass --yes to confirm")
			}
			if err := rt.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("store reset to seed data"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func statsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show moderation counts and per-vendor totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			apps := rt.store.Apps()

			statuses := []models.Status{models.StatusPending, models.StatusReview, models.StatusApproved, models.StatusRejected}
			for _, s := range statuses {
				fmt.Fprintf(out, "%-10s %d\n", colorStatus(s), len(views.ByStatus(apps, s)))
			}
			fmt.Fprintln(out)

			vendors := rt.store.Vendors()
			sort.SliceStable(vendors, func(i, j int) bool { return vendors[i].BusinessName < vendors[j].BusinessName })

			table := tablewriter.NewWriter(out)
			table.Header("Vendor", "Tier", "Apps", "Approved", "Downloads", "Revenue")
			for _, v := range vendors {
				st := views.StatsForVendor(apps, v.ID)
				if err := table.Append([]string{
					v.BusinessName, string(v.Subscription),
					fmt.Sprint(st.Apps), fmt.Sprint(st.Approved),
					fmt.Sprint(st.Downloads), fmt.Sprintf("$%.2f", st.Revenue),
				}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
