package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/pantry/internal/auth"
	"github.com/sakif/pantry/internal/model"
	"github.com/sakif/pantry/internal/persistence"
	"github.com/sakif/pantry/internal/service"
)

func (c *cli) newListCmd() *cobra.Command {
	var (
		category string
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the displayed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("category") || cmd.Flags().Changed("search") {
				if err := s.svc.ApplyFilters(ctx, &category, &search); err != nil {
					return err
				}
			}

			items := s.svc.Feed(ctx).Items
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), model.MsgEmptyInventoryTitle)
				return nil
			}
			return printItems(cmd.OutOrStdout(), items, s.svc.Now())
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "apply a category filter (empty clears it)")
	cmd.Flags().StringVar(&search, "search", "", "apply a name search (empty clears it)")
	return cmd
}

func (c *cli) newExpiringCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "Show items that are expiring soon or expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			return printItems(cmd.OutOrStdout(), s.svc.Expiring(ctx, days), s.svc.Now())
		},
	}
	cmd.Flags().IntVar(&days, "days", model.ExpirationThresholdDays, "look-ahead window in days")
	return cmd
}

func (c *cli) newAddCmd() *cobra.Command {
	var (
		in      service.CreateInput
		expires string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a food item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if expires != "" {
				in.ExpirationDate = &expires
			}
			item, err := s.svc.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", model.MsgCreated, item.ID)
			return nil
		},
	}
	defaults := model.DefaultFormValues(c.now())
	cmd.Flags().StringVar(&in.Name, "name", defaults.Name, "item name")
	cmd.Flags().Float64Var(&in.Quantity, "quantity", defaults.Quantity, "quantity")
	cmd.Flags().StringVar(&in.Unit, "unit", defaults.Unit, "unit")
	cmd.Flags().StringVar(&in.Category, "category", defaults.Category, "category")
	cmd.Flags().StringVar(&expires, "expires", "", "expiration date (YYYY-MM-DD)")
	return cmd
}

func (c *cli) newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a food item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			s, err := c.open(ctx, cmd, printNotifier{out: out})
			if err != nil {
				return err
			}
			defer s.Close()

			confirm := service.AlwaysConfirm
			if !yes {
				confirm = promptConfirm(cmd.InOrStdin(), out)
			}

			outcome, err := s.svc.Delete(ctx, args[0], confirm)
			if err != nil {
				return err
			}
			if outcome == service.DeleteCancelled {
				fmt.Fprintln(out, "cancelled")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// promptConfirm asks on out and reads a y/N answer from in. Anything but
// "y" or "yes" cancels.
func promptConfirm(in io.Reader, out io.Writer) service.ConfirmFunc {
	return func(_ context.Context, prompt string, _ model.FoodItem) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

func (c *cli) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the stored record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, found, err := s.storage.Read(ctx)
			if err != nil {
				return err
			}
			if !found {
				return errors.New("nothing stored yet")
			}
			// Always plain JSON, whatever the storage codec is.
			data, err := persistence.Codec{}.Encode(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func (c *cli) newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for mutating routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("PANTRY_JWT_SECRET is not set")
			}
			tokens, err := auth.NewTokenService(cfg.JWTSecret)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateWithDuration(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

func printItems(w io.Writer, items []model.FoodItem, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tCATEGORY\tSTATUS\tEXPIRATION")
	for _, item := range items {
		status := item.Status(now)
		fmt.Fprintf(tw, "%s\t%s\t%g %s\t%s\t%s\t%s\n",
			item.ID,
			item.Name,
			item.Quantity, item.Unit,
			item.Category,
			model.StatusLabels[status],
			model.ExpirationText(item.ExpirationDate, now),
		)
	}
	return tw.Flush()
}
