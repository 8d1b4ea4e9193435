package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/ccip"
	"github.com/svmlink/ccip-solana/solana"
)

var (
	registryMint     string
	registryProposed string
	registryTable    string
	registryWritable string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and administer token admin registry records",
}

var registryGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a token's registry record",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerKey()
		if err != nil {
			return err
		}
		mint, err := resolveMint(registryMint)
		if err != nil {
			return err
		}

		entry, err := ccip.FetchRegistryEntry(cmd.Context(), rpcLedger(), router, mint)
		if err != nil {
			return err
		}
		fmt.Printf("mint:          %s\n", entry.Mint.Base58())
		fmt.Printf("administrator: %s\n", entry.Administrator.Base58())
		fmt.Printf("pending admin: %s\n", entry.PendingAdministrator.Base58())
		fmt.Printf("lookup table:  %s\n", entry.LookupTable.Base58())
		fmt.Printf("writable:      %v\n", ccip.DecodeWritableIndexes(entry.WritableIndexes))
		return nil
	},
}

var registryProposeAdminCmd = &cobra.Command{
	Use:   "propose-admin",
	Short: "Create a registry record proposing an administrator",
	Long: `Handover is two phase: this records the proposed administrator as a
candidate, and only the candidate's accept-admin promotes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegistryAdmin(cmd, func(router, mint, authority, proposed solana.Pubkey) (solana.Instruction, error) {
			return ccip.OwnerProposeAdministratorInstruction(router, mint, authority, proposed)
		}, true)
	},
}

var registryTransferAdminCmd = &cobra.Command{
	Use:   "transfer-admin",
	Short: "Propose handing an existing record to a new administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegistryAdmin(cmd, func(router, mint, authority, proposed solana.Pubkey) (solana.Instruction, error) {
			return ccip.TransferAdminRoleInstruction(router, mint, authority, proposed)
		}, true)
	},
}

var registryAcceptAdminCmd = &cobra.Command{
	Use:   "accept-admin",
	Short: "Accept a pending administrator proposal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegistryAdmin(cmd, func(router, mint, authority, _ solana.Pubkey) (solana.Instruction, error) {
			return ccip.AcceptAdminRoleInstruction(router, mint, authority)
		}, false)
	},
}

var registrySetPoolCmd = &cobra.Command{
	Use:   "set-pool",
	Short: "Point a registry record at a pool lookup table",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerKey()
		if err != nil {
			return err
		}
		mint, err := resolveMint(registryMint)
		if err != nil {
			return err
		}
		table, err := parsePubkeyFlag("table", registryTable)
		if err != nil {
			return err
		}
		writable, err := parseWritableFlag(registryWritable)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		ix, err := ccip.SetPoolInstruction(router, mint, signer.Pubkey(), table, writable)
		if err != nil {
			return err
		}
		return dispatchInstructions(cmd.Context(), signer, ix)
	},
}

func runRegistryAdmin(cmd *cobra.Command, build func(router, mint, authority, proposed solana.Pubkey) (solana.Instruction, error), needsProposed bool) error {
	router, err := routerKey()
	if err != nil {
		return err
	}
	mint, err := resolveMint(registryMint)
	if err != nil {
		return err
	}
	var proposed solana.Pubkey
	if needsProposed {
		proposed, err = parsePubkeyFlag("proposed", registryProposed)
		if err != nil {
			return err
		}
	}
	signer, err := loadSigner()
	if err != nil {
		return err
	}

	ix, err := build(router, mint, signer.Pubkey(), proposed)
	if err != nil {
		return err
	}
	return dispatchInstructions(cmd.Context(), signer, ix)
}

func init() {
	for _, c := range []*cobra.Command{registryGetCmd, registryProposeAdminCmd, registryTransferAdminCmd, registryAcceptAdminCmd, registrySetPoolCmd} {
		c.Flags().StringVar(&registryMint, "mint", "", "token mint or symbol")
	}
	registryProposeAdminCmd.Flags().StringVar(&registryProposed, "proposed", "", "proposed administrator")
	registryTransferAdminCmd.Flags().StringVar(&registryProposed, "proposed", "", "proposed administrator")
	registrySetPoolCmd.Flags().StringVar(&registryTable, "table", "", "pool lookup table address")
	registrySetPoolCmd.Flags().StringVar(&registryWritable, "writable", "", "comma separated writable table indexes, e.g. 3,4,7")

	registryCmd.AddCommand(registryGetCmd)
	registryCmd.AddCommand(registryProposeAdminCmd)
	registryCmd.AddCommand(registryTransferAdminCmd)
	registryCmd.AddCommand(registryAcceptAdminCmd)
	registryCmd.AddCommand(registrySetPoolCmd)
	rootCmd.AddCommand(registryCmd)
}
