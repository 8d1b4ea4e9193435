package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/helius"
	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanafees"
)

var (
	priorityFeeCULimit    uint32
	priorityFeeSignatures uint64
	priorityFeeHelius     bool
)

var priorityFeeCmd = &cobra.Command{
	Use:   "priority-fee",
	Short: "Estimate the lamport cost of a send at current priority fees",
	Long: `Samples recent prioritization fees on the router and prices a
transaction at the median. With --helius the estimate comes from the
Helius priority fee API instead (HELIUS_API_KEY or HELIUS_RPC_URL must
be set).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerKey()
		if err != nil {
			return err
		}
		accounts := []solana.Pubkey{router}

		var est solanafees.TxFeeEstimate
		if priorityFeeHelius {
			hc, err := helius.ClientFromEnv()
			if err != nil {
				return err
			}
			est, err = solanafees.EstimateWithHelius(cmd.Context(), hc, accounts,
				priorityFeeCULimit, priorityFeeSignatures,
				&helius.PriorityFeeOptions{Recommended: true})
			if err != nil {
				return err
			}
		} else {
			est, err = solanafees.EstimateWithRPC(cmd.Context(), rpcLedger(), accounts,
				priorityFeeCULimit, priorityFeeSignatures)
			if err != nil {
				return err
			}
		}

		fmt.Printf("unit price: %d micro-lamports/CU\n", est.MicroLamportsPerCU)
		fmt.Printf("estimate:   %s\n", est)
		return nil
	},
}

func init() {
	f := priorityFeeCmd.Flags()
	f.Uint32Var(&priorityFeeCULimit, "cu-limit", 200_000, "compute unit limit to price")
	f.Uint64Var(&priorityFeeSignatures, "signatures", 1, "signature count to price")
	f.BoolVar(&priorityFeeHelius, "helius", false, "use the Helius priority fee API")

	rootCmd.AddCommand(priorityFeeCmd)
}
