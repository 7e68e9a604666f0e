package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestConfirmTransferMapsRevertToInsufficientFunds(t *testing.T) {
	hash := common.HexToHash("0x01")

	err := confirmTransfer(&types.Receipt{Status: types.ReceiptStatusFailed}, hash)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	err = confirmTransfer(&types.Receipt{Status: types.ReceiptStatusSuccessful}, hash)
	require.NoError(t, err)
}
