package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	calcLoan        float64
	calcValue       float64
	calcLoanDate    string
	calcEquityDelta float64
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Score a single property from loan and value inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if calcLoan < 0 || calcValue < 0 {
			return eris.New("loan and value must be >= 0")
		}

		var loanDate *time.Time
		if calcLoanDate != "" {
			t, err := time.Parse("2006-01-02", calcLoanDate)
			if err != nil {
				return eris.Wrap(err, "loan-date must be YYYY-MM-DD")
			}
			loanDate = &t
		}

		result := liveMetrics(calcLoan, calcValue, loanDate, calcEquityDelta)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	calcCmd.Flags().Float64Var(&calcLoan, "loan", 0, "current loan balance (required)")
	calcCmd.Flags().Float64Var(&calcValue, "value", 0, "estimated property value (required)")
	calcCmd.Flags().StringVar(&calcLoanDate, "loan-date", "", "loan origination date, YYYY-MM-DD")
	calcCmd.Flags().Float64Var(&calcEquityDelta, "equity-delta", 0, "90-day equity delta")
	_ = calcCmd.MarkFlagRequired("loan")
	_ = calcCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(calcCmd)
}
