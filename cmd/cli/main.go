package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gosettle-cli",
		Short:         "GoSettle CLI tool",
		Long:          `A command line interface for the GoSettle settlement API and offline scenario replays.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoSettle API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newWeeksCommand(),
		newLedgerCommand(),
		newGetCommand("state", "Show the current financial state", "/api/v1/state"),
		newGetCommand("performance", "Show per-week results and totals", "/api/v1/performance"),
		newGetCommand("reconcile", "Replay the inputs and report drift", "/api/v1/settlements/reconcile"),
		newSettleCommand(),
		newReplayCommand(),
	)

	return rootCmd
}

func newWeeksCommand() *cobra.Command {
	weeksCmd := &cobra.Command{
		Use:   "weeks",
		Short: "Week catalog operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List weeks with their results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, http.MethodGet, "/api/v1/weeks", nil)
		},
	}

	var (
		number     int
		start, end string
		percentage string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a week and resettle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{
				"start_date": start,
				"end_date":   end,
				"percentage": percentage,
			}
			if number > 0 {
				body["week_number"] = number
			}
			return call(cmd, http.MethodPost, "/api/v1/weeks", body)
		},
	}
	createCmd.Flags().IntVar(&number, "number", 0, "Week number (default: next free number)")
	createCmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&percentage, "pct", "", "Weekly return percentage")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	_ = createCmd.MarkFlagRequired("pct")

	var newPct string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a week's percentage and resettle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodPatch, "/api/v1/weeks/"+url.PathEscape(args[0]),
				map[string]any{"percentage": newPct})
		},
	}
	updateCmd.Flags().StringVar(&newPct, "pct", "", "New weekly return percentage")
	_ = updateCmd.MarkFlagRequired("pct")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a week and resettle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodDelete, "/api/v1/weeks/"+url.PathEscape(args[0]), nil)
		},
	}

	weeksCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return weeksCmd
}

func newLedgerCommand() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Capital ledger operations",
	}

	var (
		pool          string
		limit, offset int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if pool != "" {
				q.Set("pool", pool)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/api/v1/ledger"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return call(cmd, http.MethodGet, path, nil)
		},
	}
	listCmd.Flags().StringVar(&pool, "pool", "", "Only entries of this pool (CAPITAL or OPERATOR)")
	listCmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	summaryCmd := &cobra.Command{
		Use:   "summary <pool>",
		Short: "Show deposit, withdrawal and fee totals of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodGet, "/api/v1/ledger/summary/"+url.PathEscape(args[0]), nil)
		},
	}

	ledgerCmd.AddCommand(
		listCmd,
		summaryCmd,
		newMovementCommand("deposit", "Record a deposit and resettle", "/api/v1/ledger/deposits"),
		newMovementCommand("withdraw", "Record a withdrawal and resettle", "/api/v1/ledger/withdrawals"),
	)
	return ledgerCmd
}

func newMovementCommand(use, short, path string) *cobra.Command {
	var pool, amount, note, effectiveAt string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{"pool": pool, "amount": amount}
			if note != "" {
				body["note"] = note
			}
			if effectiveAt != "" {
				body["effective_at"] = effectiveAt
			}
			return call(cmd, http.MethodPost, path, body)
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "CAPITAL", "Pool (CAPITAL or OPERATOR)")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in currency units")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&effectiveAt, "at", "", "Effective time (RFC 3339), defaults to now")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newGetCommand(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, http.MethodGet, path, nil)
		},
	}
}

func newSettleCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Force a full recalculation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()
			c.idempotencyKey = key
			out, err := c.do(cmd.Context(), http.MethodPost, "/api/v1/settlements", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&key, "idempotency-key", "", "Idempotency-Key header value")

	return cmd
}

func call(cmd *cobra.Command, method, path string, body any) error {
	out, err := newClient().do(cmd.Context(), method, path, body)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

type client struct {
	http           *http.Client
	base           string
	idempotencyKey string
}

func newClient() *client {
	return &client{
		http: &http.Client{Timeout: timeout},
		base: strings.TrimRight(baseURL, "/"),
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Code)
	}
	return fmt.Sprintf("request failed (status %d): %s: %s", e.Status, e.Code, e.Message)
}

func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", c.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = truncate(strings.TrimSpace(string(raw)), 200)
		}
		return nil, apiErr
	}

	return raw, nil
}

func printJSON(w io.Writer, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
