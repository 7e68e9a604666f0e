package assetregistry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestConfirmTransferMapsRevertToNotOwner(t *testing.T) {
	hash := common.HexToHash("0x01")

	err := confirmTransfer(&types.Receipt{Status: types.ReceiptStatusFailed}, hash)
	require.ErrorIs(t, err, ErrNotOwner)

	err = confirmTransfer(&types.Receipt{Status: types.ReceiptStatusSuccessful}, hash)
	require.NoError(t, err)
}

func TestResolveEscrowAccountsUseCustodialAddress(t *testing.T) {
	custodial := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	c := &ERC721Client{account: custodial}

	require.Equal(t, custodial, c.resolve("raffle:64f0c2f9a1b2c3d4e5f60718"))
	require.Equal(t,
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		c.resolve("0x1111111111111111111111111111111111111111"))
}
