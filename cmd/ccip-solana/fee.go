package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/ccip"
	"github.com/svmlink/ccip-solana/spltoken"
)

var (
	feeMint     string
	feeAmount   uint64
	feeReceiver string
	feeData     string
	feeToken    string
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Quote the fee for a message without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerKey()
		if err != nil {
			return err
		}
		selector, err := destSelector()
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		var msg ccip.Message
		msg.Receiver, err = parseReceiverFlag(feeReceiver)
		if err != nil {
			return err
		}
		if feeData != "" {
			msg.Data, err = parseDataFlag(feeData)
			if err != nil {
				return err
			}
		}
		if feeMint != "" {
			mint, err := resolveMint(feeMint)
			if err != nil {
				return err
			}
			msg.TokenAmounts = []ccip.TokenAmount{{Mint: mint, Amount: feeAmount}}
		}

		msg.FeeToken, err = feeTokenOverride(feeToken)
		if err != nil {
			return err
		}
		billingMint := msg.FeeToken
		if billingMint.IsZero() {
			billingMint = spltoken.WSOLMint
		}

		fee, err := ccip.GetFee(cmd.Context(), rpcLedger(), router, selector, signer.Pubkey(), msg, billingMint)
		if err != nil {
			return err
		}
		fmt.Printf("fee token: %s\n", fee.Token.Base58())
		fmt.Printf("amount:    %d\n", fee.Amount)
		fmt.Printf("juels:     %s\n", fee.Juels)
		return nil
	},
}

func init() {
	f := feeCmd.Flags()
	f.StringVar(&feeMint, "mint", "", "token mint or symbol to transfer")
	f.Uint64Var(&feeAmount, "amount", 0, "token amount in base units")
	f.StringVar(&feeReceiver, "receiver", "", "destination chain receiver (hex or base58)")
	f.StringVar(&feeData, "data", "", "message payload (0x-hex or literal)")
	f.StringVar(&feeToken, "fee-token", "", "fee token mint or symbol; empty or \"native\" bills SOL")

	rootCmd.AddCommand(feeCmd)
}
