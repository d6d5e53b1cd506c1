package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/langler/internal/excel"
	"github.com/example/langler/pkg/models"
)

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad user id %q", s)
	}
	return id, nil
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --at %q: %w", s, err)
	}
	return t.UTC(), nil
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var at, translation string
	cmd := &cobra.Command{
		Use:   "review <user> <word> <grade>",
		Short: "Record a review of a word",
		Long:  "Record a review. Grade is 1-4 or again, hard, good, easy. Unknown words are created.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			grade, err := models.ParseGrade(args[2])
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			word, err := a.words.Create(ctx, args[1], translation)
			if err != nil {
				return err
			}
			item, err := a.reviews.Record(ctx, userID, word.ID, grade, now)
			if err != nil {
				return err
			}
			printItem(cmd.OutOrStdout(), word, item, now)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "review time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&translation, "translation", "", "translation used when the word is new")
	return cmd
}

func newReplayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <user> <word>",
		Short: "Rebuild an item from its review history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			word, err := a.words.GetByText(ctx, args[1])
			if err != nil {
				return err
			}
			item, err := a.reviews.Replay(ctx, userID, word.ID)
			if err != nil {
				return err
			}
			printItem(cmd.OutOrStdout(), word, item, time.Now().UTC())
			return nil
		},
	}
}

func newLevelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "level <user>",
		Short: "Print the vocabulary summary of a user as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.levels.Summary(cmd.Context(), userID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}

func newQueueCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "queue <user>",
		Short: "List the words due for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			now := time.Now().UTC()
			items, err := a.reviews.Queue(ctx, userID, now, limit)
			if err != nil {
				return err
			}
			ids := make([]int64, len(items))
			for i, it := range items {
				ids[i] = it.WordID
			}
			texts, err := a.words.TextsByID(ctx, ids)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "nothing due")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "%-24s %-10s %s\n", texts[it.WordID], stateLabel(it.State), formatDue(it.Due))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of words, 0 for all")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <user>",
		Short: "Export a user's items to an .xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("langler-%d.xlsx", userID)
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			items, err := a.items.ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			ids := make([]int64, len(items))
			for i, it := range items {
				ids[i] = it.WordID
			}
			words, err := a.words.ByIDs(ctx, ids)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := excel.ExportItems(f, items, words, time.Now().UTC()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("exported", "user", userID, "items", len(items), "file", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default langler-<user>.xlsx)")
	return cmd
}

func printItem(w io.Writer, word models.Word, it models.Item, now time.Time) {
	fmt.Fprintf(w, "%s: %s, due %s", word.Text, stateLabel(it.State), formatDue(it.Due))
	if it.Stability != nil && it.Difficulty != nil {
		fmt.Fprintf(w, ", stability %.2f, difficulty %.2f", *it.Stability, *it.Difficulty)
	}
	if it.Due != nil && it.Due.After(now) {
		fmt.Fprintf(w, " (in %s)", it.Due.Sub(now).Round(time.Minute))
	}
	fmt.Fprintln(w)
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func stateLabel(s models.State) string {
	if s == models.StateUnspecified {
		return "new"
	}
	return s.String()
}
