package assetregistry

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Minimal ERC721 ABI: only the methods the adapter uses
const erc721ABI = `[
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"transferFrom","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

const transferGasLimit = 180000

// ERC721Client is the production Registry backed by ERC721 contracts. Like
// the ERC20 ledger client it signs with the service's custodial key, which
// acts as the on-chain escrow for every raffle.
type ERC721Client struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	account    common.Address
	chainID    *big.Int
	abi        abi.ABI
}

// NewERC721Client connects to the RPC endpoint and prepares the custodial signer.
func NewERC721Client(rpcURL, privateKeyHex string, chainID int64) (*ERC721Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC721 ABI: %w", err)
	}

	return &ERC721Client{
		client:     client,
		privateKey: privateKey,
		account:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    big.NewInt(chainID),
		abi:        parsedABI,
	}, nil
}

// resolve maps an account to an on-chain address. Virtual escrow accounts
// are custodied by the service wallet, everything else is a hex address.
func (c *ERC721Client) resolve(account string) common.Address {
	if common.IsHexAddress(account) {
		return common.HexToAddress(account)
	}
	return c.account
}

// Transfer moves the asset between accounts via transferFrom.
func (c *ERC721Client) Transfer(ctx context.Context, contract, from, to string, tokenID int64) error {
	data, err := c.abi.Pack("transferFrom", c.resolve(from), c.resolve(to), big.NewInt(tokenID))
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom: %w", err)
	}

	contractAddr := common.HexToAddress(contract)
	nonce, err := c.client.PendingNonceAt(ctx, c.account)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, contractAddr, big.NewInt(0), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		if isOwnershipRevert(err) {
			return fmt.Errorf("%w: %v", ErrNotOwner, err)
		}
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	// Mempool acceptance is not success. The transfer only counts once
	// the transaction is mined without reverting.
	receipt, err := bind.WaitMined(ctx, c.client, signed)
	if err != nil {
		return fmt.Errorf("failed to confirm transaction %s: %w", signed.Hash().Hex(), err)
	}
	return confirmTransfer(receipt, signed.Hash())
}

// confirmTransfer maps a mined receipt onto the registry contract. The only
// way these fixed-gas transferFrom calls revert is an ownership or approval
// failure.
func confirmTransfer(receipt *types.Receipt, hash common.Hash) error {
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s reverted", ErrNotOwner, hash.Hex())
	}
	return nil
}

// OwnerOf reads the current owner of the asset.
func (c *ERC721Client) OwnerOf(ctx context.Context, contract string, tokenID int64) (string, error) {
	data, err := c.abi.Pack("ownerOf", big.NewInt(tokenID))
	if err != nil {
		return "", fmt.Errorf("failed to pack ownerOf: %w", err)
	}
	contractAddr := common.HexToAddress(contract)
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &contractAddr, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("ownerOf call failed: %w", err)
	}
	results, err := c.abi.Unpack("ownerOf", out)
	if err != nil {
		return "", fmt.Errorf("failed to unpack ownerOf result: %w", err)
	}
	owner, ok := results[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected ownerOf result type %T", results[0])
	}
	return strings.ToLower(owner.Hex()), nil
}

// isOwnershipRevert matches the revert reasons the common ERC721
// implementations use for ownership failures.
func isOwnershipRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not owner") || strings.Contains(msg, "incorrect owner") || strings.Contains(msg, "caller is not token owner")
}
