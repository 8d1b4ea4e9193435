package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svmlink/ccip-solana/ccip"
)

var tableMint string

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Inspect pool lookup tables",
}

var tableShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Resolve and print a token's pool lookup table",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerKey()
		if err != nil {
			return err
		}
		mint, err := resolveMint(tableMint)
		if err != nil {
			return err
		}
		ledger := rpcLedger()
		ctx := cmd.Context()

		entry, err := ccip.FetchRegistryEntry(ctx, ledger, router, mint)
		if err != nil {
			return err
		}
		table, err := ccip.ResolveTokenTable(ctx, ledger, entry)
		if err != nil {
			return err
		}

		fmt.Printf("table:        %s\n", table.Table.Address.Base58())
		fmt.Printf("pool program: %s\n", table.PoolProgram.Base58())
		for i, addr := range table.Table.Addresses {
			writable := " "
			if i > 0 && ccip.IsWritableIndex(entry.WritableIndexes, uint8(i)) {
				writable = "w"
			}
			fmt.Printf("%3d %s %s%s\n", i, writable, addr.Base58(), tableRole(i))
		}
		return nil
	},
}

func tableRole(index int) string {
	var role string
	switch index {
	case ccip.PoolTableIndexSelf:
		role = "table self"
	case ccip.PoolTableIndexAdminRegistry:
		role = "token admin registry"
	case ccip.PoolTableIndexPoolProgram:
		role = "pool program"
	case ccip.PoolTableIndexChainConfig:
		role = "pool chain config"
	case ccip.PoolTableIndexTokenAccount:
		role = "pool token account"
	case ccip.PoolTableIndexPoolSigner:
		role = "pool signer"
	case ccip.PoolTableIndexTokenProgram:
		role = "token program"
	case ccip.PoolTableIndexMint:
		role = "mint"
	default:
		return ""
	}
	return "  (" + role + ")"
}

func init() {
	tableShowCmd.Flags().StringVar(&tableMint, "mint", "", "token mint or symbol")
	tableCmd.AddCommand(tableShowCmd)
	rootCmd.AddCommand(tableCmd)
}
