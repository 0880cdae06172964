package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iho/gosettle/internal/domain"
	"github.com/iho/gosettle/internal/settlement"
)

// Scenario is an offline settlement input read from YAML:
//
//	currency: USD
//	ledger:
//	  - at: 2023-12-31T10:00:00Z
//	    pool: capital
//	    kind: deposit
//	    amount: "100000"
//	weeks:
//	  - start: 2024-01-01
//	    end: 2024-01-07
//	    percentage: "10"
type Scenario struct {
	Currency string          `yaml:"currency"`
	Ledger   []ScenarioEntry `yaml:"ledger"`
	Weeks    []ScenarioWeek  `yaml:"weeks"`
}

// ScenarioWeek is one week of a scenario.
type ScenarioWeek struct {
	Number     int    `yaml:"number"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Percentage string `yaml:"percentage"`
}

// ScenarioEntry is one ledger movement of a scenario.
type ScenarioEntry struct {
	At     time.Time `yaml:"at"`
	Pool   string    `yaml:"pool"`
	Kind   string    `yaml:"kind"`
	Amount string    `yaml:"amount"`
	Note   string    `yaml:"note"`
}

func newReplayCommand() *cobra.Command {
	var (
		file     string
		currency string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Settle a YAML scenario locally without a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read scenario: %w", err)
			}

			sc, err := parseScenario(raw)
			if err != nil {
				return err
			}
			if currency != "" {
				sc.Currency = currency
			}

			engine, out, err := replay(sc)
			if err != nil {
				return err
			}

			if asJSON {
				return writeReplayJSON(cmd.OutOrStdout(), out)
			}
			return writeReplayTable(cmd.OutOrStdout(), engine, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Scenario file (YAML)")
	cmd.Flags().StringVar(&currency, "currency", "", "Override the scenario currency")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func parseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// toDomain converts the scenario into engine inputs. Weeks without a number
// are numbered after the highest explicit one, in file order.
func (sc *Scenario) toDomain() ([]domain.Week, []domain.LedgerEntry, error) {
	next := 0
	for _, w := range sc.Weeks {
		next = max(next, w.Number)
	}

	weeks := make([]domain.Week, 0, len(sc.Weeks))
	for i, w := range sc.Weeks {
		start, err := time.Parse("2006-01-02", w.Start)
		if err != nil {
			return nil, nil, fmt.Errorf("week %d: start: %w", i+1, err)
		}
		end, err := time.Parse("2006-01-02", w.End)
		if err != nil {
			return nil, nil, fmt.Errorf("week %d: end: %w", i+1, err)
		}
		pct, err := decimal.NewFromString(w.Percentage)
		if err != nil {
			return nil, nil, fmt.Errorf("week %d: percentage: %w", i+1, err)
		}

		number := w.Number
		if number == 0 {
			next++
			number = next
		}

		weeks = append(weeks, domain.Week{
			ID:         fmt.Sprintf("week-%d", number),
			WeekNumber: number,
			StartDate:  start,
			EndDate:    end,
			Percentage: pct,
		})
	}

	sort.SliceStable(weeks, func(i, j int) bool {
		if !weeks[i].StartDate.Equal(weeks[j].StartDate) {
			return weeks[i].StartDate.Before(weeks[j].StartDate)
		}
		return weeks[i].WeekNumber < weeks[j].WeekNumber
	})

	entries := make([]domain.LedgerEntry, 0, len(sc.Ledger))
	for i, e := range sc.Ledger {
		pool, err := domain.ParsePool(e.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger %d: %w", i+1, err)
		}

		kind := domain.EntryKind(strings.ToUpper(strings.TrimSpace(e.Kind)))
		if kind != domain.KindDeposit && kind != domain.KindWithdrawal {
			return nil, nil, fmt.Errorf("ledger %d: unknown kind %q", i+1, e.Kind)
		}

		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger %d: amount: %w", i+1, err)
		}

		entries = append(entries, domain.LedgerEntry{
			ID:        fmt.Sprintf("entry-%d", i+1),
			CreatedAt: e.At.UTC(),
			Pool:      pool,
			Kind:      kind,
			Note:      e.Note,
			Amount:    amount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return weeks, entries, nil
}

func replay(sc *Scenario) (*settlement.Engine, *settlement.Settlement, error) {
	engine, err := settlement.New(settlement.Options{Currency: sc.Currency})
	if err != nil {
		return nil, nil, err
	}

	weeks, entries, err := sc.toDomain()
	if err != nil {
		return nil, nil, err
	}

	out, err := engine.Settle(weeks, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("settle: %w", err)
	}

	return engine, out, nil
}

func writeReplayTable(w io.Writer, engine *settlement.Engine, out *settlement.Settlement) error {
	format := func(d decimal.Decimal) string {
		return formatMoney(d, engine.Currency(), engine.Places())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "WEEK\tCAPITAL START\tCAPITAL PNL\tFEE\tCAPITAL END\tOPERATOR END\tHWM\t")
	for i := range out.Results {
		r := &out.Results[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.WeekNumber,
			format(r.CapitalStart),
			format(r.CapitalPnL),
			format(r.FeeGenerated),
			format(r.CapitalEnd),
			format(r.OperatorEnd),
			format(r.HWMAfter),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\ncapital %s  operator %s  hwm %s  fees %s\n",
		format(out.State.CapitalBalance),
		format(out.State.OperatorBalance),
		format(out.State.HWM),
		format(out.TotalFees()),
	)
	return err
}

type replayJSON struct {
	Results []replayWeekJSON `json:"results"`
	State   replayStateJSON  `json:"state"`
	Fees    decimal.Decimal  `json:"total_fees"`
}

type replayWeekJSON struct {
	WeekNumber   int             `json:"week_number"`
	CapitalStart decimal.Decimal `json:"capital_start"`
	CapitalPnL   decimal.Decimal `json:"capital_pnl"`
	OperatorPnL  decimal.Decimal `json:"operator_pnl"`
	FeeGenerated decimal.Decimal `json:"fee_generated"`
	CapitalEnd   decimal.Decimal `json:"capital_end"`
	OperatorEnd  decimal.Decimal `json:"operator_end"`
	HWMAfter     decimal.Decimal `json:"hwm_after"`
}

type replayStateJSON struct {
	CapitalBalance  decimal.Decimal `json:"capital_balance"`
	OperatorBalance decimal.Decimal `json:"operator_balance"`
	HWM             decimal.Decimal `json:"hwm"`
}

func writeReplayJSON(w io.Writer, out *settlement.Settlement) error {
	doc := replayJSON{
		Results: make([]replayWeekJSON, 0, len(out.Results)),
		State: replayStateJSON{
			CapitalBalance:  out.State.CapitalBalance,
			OperatorBalance: out.State.OperatorBalance,
			HWM:             out.State.HWM,
		},
		Fees: out.TotalFees(),
	}
	for _, r := range out.Results {
		doc.Results = append(doc.Results, replayWeekJSON{
			WeekNumber:   r.WeekNumber,
			CapitalStart: r.CapitalStart,
			CapitalPnL:   r.CapitalPnL,
			OperatorPnL:  r.OperatorPnL,
			FeeGenerated: r.FeeGenerated,
			CapitalEnd:   r.CapitalEnd,
			OperatorEnd:  r.OperatorEnd,
			HWMAfter:     r.HWMAfter,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// formatMoney renders an engine amount, already rounded to the minor unit,
// with the currency's symbol and grouping.
func formatMoney(d decimal.Decimal, code string, places int32) string {
	return money.New(d.Shift(places).IntPart(), code).Display()
}
