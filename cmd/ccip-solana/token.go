package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/spltoken"
)

var (
	tokenMint     string
	tokenOwner    string
	tokenDelegate string
	tokenAmount   uint64
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "SPL token helpers for fee and transfer accounts",
}

// tokenProgramFor reads the mint account's owner so token-2022 mints derive
// and target the right program.
func tokenProgramFor(cmd *cobra.Command, mint solana.Pubkey) (solana.Pubkey, error) {
	return rpcLedger().AccountOwner(cmd.Context(), mint)
}

func tokenOwnerKey() (solana.Pubkey, error) {
	if tokenOwner != "" {
		return parsePubkeyFlag("owner", tokenOwner)
	}
	signer, err := loadSigner()
	if err != nil {
		return solana.Pubkey{}, err
	}
	return signer.Pubkey(), nil
}

var tokenAtaCmd = &cobra.Command{
	Use:   "ata",
	Short: "Print the associated token account for a mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := resolveMint(tokenMint)
		if err != nil {
			return err
		}
		owner, err := tokenOwnerKey()
		if err != nil {
			return err
		}
		program, err := tokenProgramFor(cmd, mint)
		if err != nil {
			return err
		}
		ata, err := spltoken.AssociatedTokenAddressWithProgram(owner, program, mint)
		if err != nil {
			return err
		}
		fmt.Println(ata.Base58())
		return nil
	},
}

var tokenCreateAtaCmd = &cobra.Command{
	Use:   "create-ata",
	Short: "Create the associated token account if it is missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := resolveMint(tokenMint)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		owner := signer.Pubkey()
		if tokenOwner != "" {
			owner, err = parsePubkeyFlag("owner", tokenOwner)
			if err != nil {
				return err
			}
		}
		program, err := tokenProgramFor(cmd, mint)
		if err != nil {
			return err
		}
		ix, err := spltoken.CreateAssociatedTokenAccountIdempotentInstruction(signer.Pubkey(), owner, mint, program)
		if err != nil {
			return err
		}
		return dispatchInstructions(cmd.Context(), signer, ix)
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Delegate token spending from your associated token account",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := resolveMint(tokenMint)
		if err != nil {
			return err
		}
		delegate, err := parsePubkeyFlag("delegate", tokenDelegate)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		program, err := tokenProgramFor(cmd, mint)
		if err != nil {
			return err
		}
		ata, err := spltoken.AssociatedTokenAddressWithProgram(signer.Pubkey(), program, mint)
		if err != nil {
			return err
		}
		return dispatchInstructions(cmd.Context(), signer,
			spltoken.ApproveInstruction(ata, delegate, signer.Pubkey(), tokenAmount))
	},
}

var tokenMintToCmd = &cobra.Command{
	Use:   "mint-to",
	Short: "Mint test tokens to an associated token account",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := resolveMint(tokenMint)
		if err != nil {
			return err
		}
		owner, err := tokenOwnerKey()
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		program, err := tokenProgramFor(cmd, mint)
		if err != nil {
			return err
		}
		ata, err := spltoken.AssociatedTokenAddressWithProgram(owner, program, mint)
		if err != nil {
			return err
		}
		return dispatchInstructions(cmd.Context(), signer,
			spltoken.MintToInstruction(mint, ata, signer.Pubkey(), tokenAmount))
	},
}

func init() {
	for _, c := range []*cobra.Command{tokenAtaCmd, tokenCreateAtaCmd, tokenApproveCmd, tokenMintToCmd} {
		c.Flags().StringVar(&tokenMint, "mint", "", "token mint or symbol")
	}
	tokenAtaCmd.Flags().StringVar(&tokenOwner, "owner", "", "account owner; defaults to the keypair")
	tokenCreateAtaCmd.Flags().StringVar(&tokenOwner, "owner", "", "account owner; defaults to the keypair")
	tokenMintToCmd.Flags().StringVar(&tokenOwner, "owner", "", "account owner; defaults to the keypair")
	tokenApproveCmd.Flags().StringVar(&tokenDelegate, "delegate", "", "delegate authority")
	tokenApproveCmd.Flags().Uint64Var(&tokenAmount, "amount", 0, "amount in base units")
	tokenMintToCmd.Flags().Uint64Var(&tokenAmount, "amount", 0, "amount in base units")

	tokenCmd.AddCommand(tokenAtaCmd)
	tokenCmd.AddCommand(tokenCreateAtaCmd)
	tokenCmd.AddCommand(tokenApproveCmd)
	tokenCmd.AddCommand(tokenMintToCmd)
	rootCmd.AddCommand(tokenCmd)
}
