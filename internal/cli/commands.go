package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/companion/internal/store"
)

var askCmd = &cobra.Command{
	Use:   "ask <user> <text...>",
	Short: "Run one chat turn from the terminal",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTurn(false),
}

var gameCmd = &cobra.Command{
	Use:   "game <user> <text...>",
	Short: "Run one cognitive game turn from the terminal",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTurn(true),
}

func runTurn(game bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		eng, err := newEngine(cfg, db, logger)
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		userID, text := args[0], strings.Join(args[1:], " ")
		var reply string
		if game {
			reply, err = eng.RespondGame(ctx, userID, text)
		} else {
			reply, err = eng.Respond(ctx, userID, text, nil)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}
}

var remindersCmd = &cobra.Command{
	Use:   "reminders <user>",
	Short: "List upcoming reminders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		list, err := db.UpcomingReminders(cmd.Context(), args[0], time.Now(), 10)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No upcoming reminders.")
			return nil
		}
		for _, r := range list {
			fmt.Fprintf(out, "%s  %s [%s]\n", r.DueAt.Local().Format("Mon Jan 2 15:04"), r.Title, joinTagNames(r.Tags))
			if r.Description != "" {
				fmt.Fprintf(out, "    %s\n", r.Description)
			}
		}
		return nil
	},
}

func joinTagNames(tags []store.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

var profileCmd = &cobra.Command{
	Use:   "profile <user>",
	Short: "Show what has been learned about a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := db.GetUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %q not found", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "## %s (%s)\n\n", u.Username, u.ID)
		if u.CoreInformation == "" {
			fmt.Fprintln(out, "Nothing learned yet.")
			return nil
		}
		fmt.Fprintln(out, u.CoreInformation)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user profiles",
}

var userAddCmd = &cobra.Command{
	Use:   "add <id> [username]",
	Short: "Create a user profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		username := args[0]
		if len(args) == 2 {
			username = args[1]
		}
		u, err := db.CreateUser(cmd.Context(), args[0], username)
		if errors.Is(err, store.ErrExists) {
			return fmt.Errorf("user %q already exists", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s\n", u.ID)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)
}
