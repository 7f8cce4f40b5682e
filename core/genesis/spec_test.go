package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"domaauction/core/types"
)

const yamlGenesis = `
deployer: "0x00000000000000000000000000000000000000d1"
registrar: "0x00000000000000000000000000000000000000d2"
alloc:
  "0x00000000000000000000000000000000000000b2": "2.5"
  "0x00000000000000000000000000000000000000b1": "10"
domains:
  - tokenId: "1"
    name: "Example.DOMA"
    owner: "0x00000000000000000000000000000000000000a1"
`

func TestLoadGenesisSpecYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlGenesis), 0o644))

	spec, err := LoadGenesisSpec(path)
	require.NoError(t, err)
	require.Equal(t, byte(0xd1), spec.Deployer()[19])
	require.Equal(t, byte(0xd2), spec.Registrar()[19])

	accounts := spec.Accounts()
	require.Len(t, accounts, 2)
	require.Equal(t, byte(0xb1), accounts[0].Address[19])
	require.Equal(t, "10", types.FormatEther(accounts[0].Balance))
	require.Equal(t, "2.5", types.FormatEther(accounts[1].Balance))

	domains := spec.Domains()
	require.Len(t, domains, 1)
	require.Equal(t, "example.doma", domains[0].Name)
	require.Equal(t, byte(0xa1), domains[0].Owner[19])
}

func TestParseGenesisSpecJSONRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `{"deployer":"0x00000000000000000000000000000000000000d1","registrar":"0x00000000000000000000000000000000000000d2","extra":1}`,
		"bad deployer":   `{"deployer":"nope","registrar":"0x00000000000000000000000000000000000000d2"}`,
		"negative alloc": `{"deployer":"0x00000000000000000000000000000000000000d1","registrar":"0x00000000000000000000000000000000000000d2","alloc":{"0x00000000000000000000000000000000000000b1":"-1"}}`,
		"duplicate name": `{"deployer":"0x00000000000000000000000000000000000000d1","registrar":"0x00000000000000000000000000000000000000d2","domains":[{"tokenId":"1","name":"a.doma","owner":"0x00000000000000000000000000000000000000a1"},{"tokenId":"2","name":"A.doma","owner":"0x00000000000000000000000000000000000000a1"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGenesisSpec([]byte(raw), "json")
			require.Error(t, err)
		})
	}

	_, err := ParseGenesisSpec([]byte(`{}`), "toml")
	require.Error(t, err)
}

func TestParseGenesisSpecJSONKeepsRawAndParsedValues(t *testing.T) {
	raw := `{"deployer":"0x00000000000000000000000000000000000000D1","registrar":"0x00000000000000000000000000000000000000d2","domains":[{"tokenId":"7","name":"b.doma","owner":"0x00000000000000000000000000000000000000a2"}]}`
	spec, err := ParseGenesisSpec([]byte(raw), "json")
	require.NoError(t, err)

	require.Equal(t, "0x00000000000000000000000000000000000000D1", spec.DeployerAddr)
	require.Equal(t, "0x00000000000000000000000000000000000000d2", spec.RegistrarAddr)
	require.Len(t, spec.DomainSpecs, 1)

	require.Equal(t, byte(0xd1), spec.Deployer()[19])
	require.Equal(t, byte(0xd2), spec.Registrar()[19])
	domains := spec.Domains()
	require.Len(t, domains, 1)
	require.Equal(t, int64(7), domains[0].TokenID.Int64())
	require.Empty(t, spec.Accounts())
}
