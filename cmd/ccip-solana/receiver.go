package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/ccip"
	"github.com/svmlink/ccip-solana/solana"
)

var (
	receiverProgram string
	receiverMint    string
)

var receiverCmd = &cobra.Command{
	Use:   "receiver",
	Short: "Inspect a CCIP receiver program's state",
}

func receiverKey() (solana.Pubkey, error) {
	if receiverProgram == "" {
		if envDeployment != nil && envDeployment.ReceiverProgramID != "" {
			return solana.ParsePubkey(envDeployment.ReceiverProgramID)
		}
		return ccip.DefaultReceiverProgramID, nil
	}
	return parsePubkeyFlag("program", receiverProgram)
}

var receiverLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the receiver's most recent delivered message",
	RunE: func(cmd *cobra.Command, args []string) error {
		receiver, err := receiverKey()
		if err != nil {
			return err
		}
		storage, err := ccip.FetchLatestMessage(cmd.Context(), rpcLedger(), receiver)
		if err != nil {
			return err
		}

		fmt.Printf("messages received: %d\n", storage.MessageCount)
		fmt.Printf("last updated:      %s\n", time.Unix(storage.LastUpdated, 0).UTC().Format(time.RFC3339))
		m := storage.Latest
		fmt.Printf("message id:        0x%x\n", m.MessageID)
		fmt.Printf("type:              %s\n", m.MessageType)
		fmt.Printf("source selector:   %d\n", m.SourceChainSelector)
		fmt.Printf("sender:            0x%x\n", m.Sender)
		if len(m.Data) > 0 {
			fmt.Printf("data:              0x%x\n", m.Data)
		}
		for _, ta := range m.TokenAmounts {
			fmt.Printf("token:             %s amount %d\n", ta.Mint.Base58(), ta.Amount)
		}
		return nil
	},
}

var receiverPDAsCmd = &cobra.Command{
	Use:   "pdas",
	Short: "Print the receiver program's derived accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		receiver, err := receiverKey()
		if err != nil {
			return err
		}

		state, _, err := ccip.ReceiverStatePDA(receiver)
		if err != nil {
			return err
		}
		storage, _, err := ccip.MessagesStoragePDA(receiver)
		if err != nil {
			return err
		}
		vaultAuth, _, err := ccip.TokenVaultAuthorityPDA(receiver)
		if err != nil {
			return err
		}
		admin, _, err := ccip.TokenAdminPDA(receiver)
		if err != nil {
			return err
		}

		fmt.Printf("state:            %s\n", state.Base58())
		fmt.Printf("messages storage: %s\n", storage.Base58())
		fmt.Printf("vault authority:  %s\n", vaultAuth.Base58())
		fmt.Printf("token admin:      %s\n", admin.Base58())

		if receiverMint != "" {
			mint, err := resolveMint(receiverMint)
			if err != nil {
				return err
			}
			vault, _, err := ccip.TokenVaultPDA(receiver, mint)
			if err != nil {
				return err
			}
			fmt.Printf("token vault:      %s\n", vault.Base58())
		}
		return nil
	},
}

func init() {
	receiverCmd.PersistentFlags().StringVar(&receiverProgram, "program", "", "receiver program id")
	receiverPDAsCmd.Flags().StringVar(&receiverMint, "mint", "", "also derive the vault for this mint")

	receiverCmd.AddCommand(receiverLatestCmd)
	receiverCmd.AddCommand(receiverPDAsCmd)
	rootCmd.AddCommand(receiverCmd)
}
