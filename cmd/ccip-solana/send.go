package main

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/ccip"
	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanafees"
)

var (
	sendMint             string
	sendAmount           uint64
	sendReceiver         string
	sendData             string
	sendFeeToken         string
	sendGasLimit         uint64
	sendOutOfOrder       bool
	sendCULimit          uint32
	sendCUPrice          uint64
	sendAutoCUPrice      bool
	sendSkipPreflight    bool
	sendSkipConfirmation bool
	sendDryRun           bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a cross-chain message, optionally carrying tokens",
	Long: `Quotes the fee, resolves every token leg through the token admin
registry, and dispatches a ccip_send transaction. With --dry-run the
compiled unsigned transaction is printed as base64 instead of sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := buildSendMessage()
		if err != nil {
			return err
		}

		router, err := routerKey()
		if err != nil {
			return err
		}
		opts, err := buildSendOptions(cmd, router)
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

		client, err := ccip.NewClient(rpcLedger(), router, selector, signer, newLogger())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if sendDryRun {
			tx, fee, err := client.PrepareMessage(ctx, msg, opts...)
			if err != nil {
				return err
			}
			fmt.Printf("fee: %d %s (%s juels)\n", fee.Amount, fee.Token.Base58(), fee.Juels)
			fmt.Println(base64.StdEncoding.EncodeToString(tx.Bytes()))
			return nil
		}

		receipt, err := client.SendMessage(ctx, msg, opts...)
		if err != nil {
			if receipt.Signature != "" {
				fmt.Printf("signature: %s\n", receipt.Signature)
			}
			return err
		}
		fmt.Printf("signature: %s\n", receipt.Signature)
		fmt.Printf("state: %s\n", receipt.State)
		fmt.Printf("fee: %d %s (%s juels)\n", receipt.Fee.Amount, receipt.Fee.Token.Base58(), receipt.Fee.Juels)
		if receipt.MessageID != nil {
			fmt.Printf("message id: 0x%x\n", *receipt.MessageID)
		}
		return nil
	},
}

func buildSendMessage() (ccip.Message, error) {
	var msg ccip.Message

	receiver, err := parseReceiverFlag(sendReceiver)
	if err != nil {
		return msg, err
	}
	msg.Receiver = receiver

	if sendData != "" {
		data, err := parseDataFlag(sendData)
		if err != nil {
			return msg, err
		}
		msg.Data = data
	}

	if (sendMint == "") != (sendAmount == 0) {
		return msg, errors.New("--mint and --amount go together")
	}
	if sendMint != "" {
		mint, err := resolveMint(sendMint)
		if err != nil {
			return msg, err
		}
		msg.TokenAmounts = []ccip.TokenAmount{{Mint: mint, Amount: sendAmount}}
	}

	if sendGasLimit > 0 || sendOutOfOrder {
		msg.ExtraArgs = ccip.ExtraArgs{
			GasLimit:                 ccip.NewUint128(sendGasLimit),
			AllowOutOfOrderExecution: sendOutOfOrder,
		}
	}
	return msg, nil
}

func buildSendOptions(cmd *cobra.Command, router solana.Pubkey) ([]ccip.SendOption, error) {
	var opts []ccip.SendOption

	feeToken := sendFeeToken
	if feeToken == "" && envDeployment != nil {
		feeToken = envDeployment.DefaultFeeToken
	}
	switch feeToken {
	case "", "native", "sol":
		// Native SOL is the zero fee token.
	default:
		mint, err := resolveMint(feeToken)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ccip.WithFeeToken(mint))
	}

	if sendCULimit > 0 {
		opts = append(opts, ccip.WithComputeUnitLimit(sendCULimit))
	}
	if sendAutoCUPrice && sendCUPrice == 0 {
		price, err := solanafees.SuggestComputeUnitPrice(cmd.Context(), rpcLedger(), []solana.Pubkey{router})
		if err != nil {
			return nil, fmt.Errorf("suggest compute unit price: %w", err)
		}
		sendCUPrice = price
	}
	if sendCUPrice > 0 {
		opts = append(opts, ccip.WithComputeUnitPrice(sendCUPrice))
	}
	if sendSkipPreflight {
		opts = append(opts, ccip.WithSkipPreflight())
	}
	if sendSkipConfirmation {
		opts = append(opts, ccip.WithSkipConfirmation())
	}
	return opts, nil
}

// feeTokenOverride is the fee command's version of the same defaulting.
func feeTokenOverride(value string) (solana.Pubkey, error) {
	if value == "" && envDeployment != nil {
		value = envDeployment.DefaultFeeToken
	}
	switch value {
	case "", "native", "sol":
		return solana.Pubkey{}, nil
	default:
		return resolveMint(value)
	}
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendMint, "mint", "", "token mint or symbol to transfer")
	f.Uint64Var(&sendAmount, "amount", 0, "token amount in base units")
	f.StringVar(&sendReceiver, "receiver", "", "destination chain receiver (hex or base58)")
	f.StringVar(&sendData, "data", "", "message payload (0x-hex or literal)")
	f.StringVar(&sendFeeToken, "fee-token", "", "fee token mint or symbol; empty or \"native\" bills SOL")
	f.Uint64Var(&sendGasLimit, "gas-limit", 0, "destination execution gas limit")
	f.BoolVar(&sendOutOfOrder, "allow-out-of-order", false, "permit out-of-order execution on the destination")
	f.Uint32Var(&sendCULimit, "cu-limit", 0, "compute unit limit for the transaction")
	f.Uint64Var(&sendCUPrice, "cu-price", 0, "priority fee in micro-lamports per compute unit")
	f.BoolVar(&sendAutoCUPrice, "auto-cu-price", false, "derive the compute unit price from recent fees on the router")
	f.BoolVar(&sendSkipPreflight, "skip-preflight", false, "broadcast without preflight simulation")
	f.BoolVar(&sendSkipConfirmation, "skip-confirmation", false, "return after broadcast without waiting")
	f.BoolVar(&sendDryRun, "dry-run", false, "print the unsigned transaction instead of sending")

	rootCmd.AddCommand(sendCmd)
}
