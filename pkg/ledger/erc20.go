package ledger

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

// Minimal ERC20 ABI: only the methods the adapter uses
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

const transferGasLimit = 120000

// ERC20Client is the production Ledger backed by an ERC20 token contract.
// The service holds a single custodial key; all raffle escrow accounts map
// to the custodial address on chain, with per-raffle accounting kept by the
// engine's own records.
type ERC20Client struct {
	client     *ethclient.Client
	token      common.Address
	privateKey *ecdsa.PrivateKey
	account    common.Address
	chainID    *big.Int
	abi        abi.ABI
}

// NewERC20Client connects to the RPC endpoint and prepares the custodial signer.
func NewERC20Client(rpcURL, tokenAddr, privateKeyHex string, chainID int64) (*ERC20Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20Client{
		client:     client,
		token:      common.HexToAddress(tokenAddr),
		privateKey: privateKey,
		account:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    big.NewInt(chainID),
		abi:        parsedABI,
	}, nil
}

// TransferFrom pays the escrow from a buyer's prior ERC20 approval.
func (c *ERC20Client) TransferFrom(ctx context.Context, from, _ string, amount int64) error {
	data, err := c.abi.Pack("transferFrom", common.HexToAddress(from), c.account, big.NewInt(amount))
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	return c.send(ctx, data)
}

// Transfer pays out of the custodial escrow account.
func (c *ERC20Client) Transfer(ctx context.Context, _, to string, amount int64) error {
	data, err := c.abi.Pack("transfer", common.HexToAddress(to), big.NewInt(amount))
	if err != nil {
		return fmt.Errorf("failed to pack transfer: %w", err)
	}
	return c.send(ctx, data)
}

// BalanceOf reads the token balance of an address.
func (c *ERC20Client) BalanceOf(ctx context.Context, account string) (int64, error) {
	data, err := c.abi.Pack("balanceOf", common.HexToAddress(account))
	if err != nil {
		return 0, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("balanceOf call failed: %w", err)
	}
	results, err := c.abi.Unpack("balanceOf", out)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance.Int64(), nil
}

func (c *ERC20Client) send(ctx context.Context, data []byte) error {
	nonce, err := c.client.PendingNonceAt(ctx, c.account)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.token, big.NewInt(0), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		if isBalanceRevert(err) {
			return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
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

// confirmTransfer maps a mined receipt onto the ledger contract. The only
// way these fixed-gas token transfers revert is the token rejecting them,
// which this adapter reports as insufficient funds.
func confirmTransfer(receipt *types.Receipt, hash common.Hash) error {
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s reverted", ErrInsufficientFunds, hash.Hex())
	}
	return nil
}

// isBalanceRevert matches the revert reasons the common ERC20
// implementations use for balance and allowance failures.
func isBalanceRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient") || strings.Contains(msg, "exceeds balance") || strings.Contains(msg, "exceeds allowance")
}
