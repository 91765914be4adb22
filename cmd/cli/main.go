package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/periodclose/internal/adapter/http/dto"
	"github.com/iho/periodclose/internal/infrastructure/logger"
	"github.com/iho/periodclose/internal/infrastructure/postgres"
)

const idempotencyHeader = "Idempotency-Key"

type apiClient struct {
	baseURL        string
	idempotencyKey string
	http           *http.Client
	out            io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &apiClient{out: out}
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "periodclose-cli",
		Short:         "Period-end closing CLI",
		Long:          `A command line interface for the period-end closing API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.http = &http.Client{Timeout: timeout}
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.idempotencyKey, "idempotency-key", "", "Idempotency-Key sent with posting requests")

	rootCmd.AddCommand(
		balancesCmd(c),
		lockCmd(c),
		voucherCmd(c),
		closingCmd(c),
		allocationCmd(c),
		revaluationCmd(c),
		debtCmd(c),
		reconcileCmd(c),
		chartCacheCmd(c),
		migrateCmd(),
	)
	return rootCmd
}

func balancesCmd(c *apiClient) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show the trial balance snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/balances"
			if asOf != "" {
				path += "?as_of=" + url.QueryEscape(asOf)
			}
			return c.do(http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Balance date, YYYY-MM-DD")
	return cmd
}

func lockCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "lock", Short: "Period lock operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the lock cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/api/v1/period-lock", nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [YYYY-MM-DD]",
		Short: "Move the lock cutoff; no argument unlocks every period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.SetPeriodLockRequest{}
			if len(args) == 1 {
				req.LockedUntil = args[0]
			}
			return c.do(http.MethodPut, "/api/v1/period-lock", req)
		},
	})
	return cmd
}

func chartCacheCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "drop-chart-cache",
		Short: "Drop the cached chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodDelete, "/api/v1/chart-cache", nil)
		},
	}
}

func voucherCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "voucher <id>",
		Short: "Show a posted voucher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/api/v1/vouchers/"+url.PathEscape(args[0]), nil)
		},
	}
}

func closingCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "closing", Short: "Profit and loss closing"}

	cmd.AddCommand(&cobra.Command{
		Use:   "preview <YYYY-MM>",
		Short: "Compute the closing voucher without posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/api/v1/closings/"+url.PathEscape(args[0])+"/preview", nil)
		},
	})

	var description string
	execute := &cobra.Command{
		Use:   "execute <YYYY-MM>",
		Short: "Post the closing voucher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodPost, "/api/v1/closings/"+url.PathEscape(args[0])+"/execute",
				dto.ClosingExecuteRequest{Description: description})
		},
	}
	execute.Flags().StringVar(&description, "description", "", "Voucher description")
	cmd.AddCommand(execute)
	return cmd
}

func allocationCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "allocation", Short: "Prepaid expense allocation"}

	var target string
	preview := &cobra.Command{
		Use:   "preview <YYYY-MM>",
		Short: "List allocatable prepaid items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodPost, "/api/v1/allocations/preview",
				dto.AllocationPreviewRequest{Period: args[0], TargetAccount: target})
		},
	}
	preview.Flags().StringVar(&target, "target", "", "Expense account")
	cmd.AddCommand(preview)

	var (
		execTarget  string
		postDate    string
		description string
		items       []string
		strict      bool
	)
	execute := &cobra.Command{
		Use:   "execute <YYYY-MM>",
		Short: "Post an allocation voucher for the selected items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs("item", items)
			if err != nil {
				return err
			}
			req := dto.AllocationExecuteRequest{
				Period:        args[0],
				PostDate:      postDate,
				TargetAccount: execTarget,
				Description:   description,
				Strict:        strict,
			}
			for _, p := range pairs {
				req.Selections = append(req.Selections, dto.AllocationSelectionRequest{ItemID: p[0], Amount: p[1]})
			}
			return c.do(http.MethodPost, "/api/v1/allocations/execute", req)
		},
	}
	execute.Flags().StringVar(&execTarget, "target", "", "Expense account")
	execute.Flags().StringVar(&postDate, "date", "", "Posting date, YYYY-MM-DD")
	execute.Flags().StringVar(&description, "description", "", "Voucher description")
	execute.Flags().StringArrayVar(&items, "item", nil, "Selected item as id=amount, repeatable")
	execute.Flags().BoolVar(&strict, "strict", false, "Reject amounts outside the remaining balance instead of clamping them")
	_ = execute.MarkFlagRequired("target")
	cmd.AddCommand(execute)

	var reverseDate, reverseDescription string
	reverse := &cobra.Command{
		Use:   "reverse <voucher-id>",
		Short: "Reverse an allocation voucher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodPost, "/api/v1/allocations/vouchers/"+url.PathEscape(args[0])+"/reverse",
				dto.ReverseVoucherRequest{PostDate: reverseDate, Description: reverseDescription})
		},
	}
	reverse.Flags().StringVar(&reverseDate, "date", "", "Posting date, YYYY-MM-DD")
	reverse.Flags().StringVar(&reverseDescription, "description", "", "Voucher description")
	cmd.AddCommand(reverse)

	return cmd
}

func revaluationCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "revaluation", Short: "Foreign currency revaluation"}

	var (
		req     dto.RevaluationRequest
		amounts []string
	)
	build := func() (dto.RevaluationRequest, error) {
		pairs, err := parsePairs("amount", amounts)
		if err != nil {
			return req, err
		}
		out := req
		out.ForeignAmounts = make(map[string]string, len(pairs))
		for _, p := range pairs {
			out.ForeignAmounts[p[0]] = p[1]
		}
		return out, nil
	}

	for _, action := range []string{"preview", "execute"} {
		path := "/api/v1/revaluations/" + action
		sub := &cobra.Command{
			Use:   action,
			Short: strings.ToUpper(action[:1]) + action[1:] + " a revaluation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				body, err := build()
				if err != nil {
					return err
				}
				return c.do(http.MethodPost, path, body)
			},
		}
		sub.Flags().StringVar(&req.Period, "period", "", "Period, YYYY-MM")
		sub.Flags().StringVar(&req.PostDate, "date", "", "Posting date, YYYY-MM-DD")
		sub.Flags().StringVar(&req.Currency, "currency", "", "Currency code")
		sub.Flags().StringVar(&req.NewRate, "rate", "", "New exchange rate")
		sub.Flags().StringVar(&req.Description, "description", "", "Voucher description")
		sub.Flags().StringSliceVar(&req.AccountCodes, "accounts", nil, "Accounts to revalue")
		sub.Flags().StringArrayVar(&amounts, "amount", nil, "Foreign balance as account=amount, repeatable")
		_ = sub.MarkFlagRequired("rate")
		cmd.AddCommand(sub)
	}
	return cmd
}

func debtCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "debt", Short: "Payment to invoice allocation"}

	var req dto.DebtPreviewRequest
	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest a FIFO allocation for a payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.PaymentID == "" && req.PartnerID == "" {
				return fmt.Errorf("either --payment or --partner is required")
			}
			return c.do(http.MethodPost, "/api/v1/debts/allocations/preview", req)
		},
	}
	suggest.Flags().StringVar(&req.PaymentID, "payment", "", "Saved payment id")
	suggest.Flags().StringVar(&req.PartnerID, "partner", "", "Partner id for a draft payment")
	suggest.Flags().StringVar(&req.Amount, "amount", "", "Draft payment amount")
	cmd.AddCommand(suggest)

	cmd.AddCommand(&cobra.Command{
		Use:   "allocations <payment-id>",
		Short: "List a payment's current allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/api/v1/debts/payments/"+url.PathEscape(args[0])+"/allocations", nil)
		},
	})

	for _, s := range []struct{ use, short, suffix string }{
		{"allocate", "Allocate a payment to invoices", "allocations"},
		{"reverse", "Release allocated amounts back to the payment", "reversals"},
	} {
		var lines []string
		suffix := s.suffix
		sub := &cobra.Command{
			Use:   s.use + " <payment-id>",
			Short: s.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pairs, err := parsePairs("line", lines)
				if err != nil {
					return err
				}
				var body dto.DebtSubmitRequest
				for _, p := range pairs {
					body.Lines = append(body.Lines, dto.DebtLineRequest{InvoiceID: p[0], Amount: p[1]})
				}
				return c.do(http.MethodPost, "/api/v1/debts/payments/"+url.PathEscape(args[0])+"/"+suffix, body)
			},
		}
		sub.Flags().StringArrayVar(&lines, "line", nil, "Invoice line as invoice=amount, repeatable")
		cmd.AddCommand(sub)
	}

	return cmd
}

func reconcileCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <YYYY-MM>",
		Short: "Cross-check allocation vouchers and the trial balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(http.MethodGet, "/api/v1/reconciliations/"+url.PathEscape(args[0]), nil)
		},
	}
}

// migrateCmd talks to Postgres directly rather than through the API.
func migrateCmd() *cobra.Command {
	var databaseURL, source string
	cmd := &cobra.Command{Use: "migrate", Short: "Apply or roll back schema migrations"}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&source, "source", "file://migrations", "Migration source URL")

	run := func(apply func(string, string, zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			log := logger.New(logger.Config{Format: "console", Service: "periodclose-cli", Output: cmd.ErrOrStderr()})
			return apply(source, databaseURL, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", Args: cobra.NoArgs, RunE: run(postgres.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", Args: cobra.NoArgs, RunE: run(postgres.RunMigrationsDown)},
	)
	return cmd
}

// parsePairs splits key=value flag values.
func parsePairs(flag string, values []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(values))
	for _, v := range values {
		key, val, ok := strings.Cut(v, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("--%s %q: want key=value", flag, v)
		}
		pairs = append(pairs, [2]string{key, val})
	}
	return pairs, nil
}

func (c *apiClient) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.idempotencyKey != "" && method != http.MethodGet {
		req.Header.Set(idempotencyHeader, c.idempotencyKey)
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	return printJSON(c.out, payload)
}

func printJSON(out io.Writer, payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		_, err = out.Write(payload)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}
