package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	wei, err := ParseEther("0.55")
	require.NoError(t, err)
	require.Equal(t, "550000000000000000", wei.String())

	wei, err = ParseEther("1")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", wei.String())

	_, err = ParseEther("-1")
	require.Error(t, err)
	_, err = ParseEther("0.0000000000000000001")
	require.Error(t, err)
	_, err = ParseEther("abc")
	require.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	require.Equal(t, "0.00275", FormatEther(big.NewInt(2_750_000_000_000_000)))
	require.Equal(t, "0", FormatEther(nil))
}

func TestFractionToBps(t *testing.T) {
	bps, err := FractionToBps("0.005")
	require.NoError(t, err)
	require.Equal(t, uint32(50), bps)

	bps, err = FractionToBps("")
	require.NoError(t, err)
	require.Zero(t, bps)

	_, err = FractionToBps("1.5")
	require.Error(t, err)
	_, err = FractionToBps("0.00001")
	require.Error(t, err)
}
