package deployments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployments.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "schema_version": 1,
  "deployments": [
    {
      "name": "devnet",
      "cluster": "devnet",
      "rpc_url": "https://api.devnet.solana.com",
      "router_program_id": "Ccip842gzYHhvdDkSyi2YVCoAWPbYJoApMFzSxQroE9C",
      "receiver_program_id": "671b2A65jR5QxwYFSuEMBhQ6bWJKkGMheEp3ReWC9WnB",
      "dest_chains": [
        {"name": "ethereum-sepolia", "selector": 16015286601757825753}
      ],
      "tokens": [
        {"symbol": "LINK", "mint": "LinkhB3afbBKb2EQQu7s7umdZceV3wcvAUJhQAfQ23L"}
      ]
    }
  ]
}`), 0o600))
	return path
}

func TestLoadAndFind(t *testing.T) {
	r, err := Load(writeRegistry(t))
	require.NoError(t, err)

	d, err := r.Find("devnet")
	require.NoError(t, err)
	require.Equal(t, "devnet", d.Cluster)
	require.Equal(t, "Ccip842gzYHhvdDkSyi2YVCoAWPbYJoApMFzSxQroE9C", d.RouterProgramID)

	sel, err := d.DestChainSelector("ethereum-sepolia")
	require.NoError(t, err)
	require.Equal(t, uint64(16015286601757825753), sel)

	mint, err := d.TokenMint("link")
	require.NoError(t, err)
	require.Equal(t, "LinkhB3afbBKb2EQQu7s7umdZceV3wcvAUJhQAfQ23L", mint)
}

func TestFindMisses(t *testing.T) {
	r, err := Load(writeRegistry(t))
	require.NoError(t, err)

	_, err = r.Find("mainnet")
	require.ErrorIs(t, err, ErrNotFound)

	d, err := r.Find("devnet")
	require.NoError(t, err)
	_, err = d.DestChainSelector("avalanche")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = d.TokenMint("USDC")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}
