// Package web3 connects the swap node to the chain that custodies the pooled
// funds. It implements the single transfer capability the ledger needs to
// release withdrawal proceeds, for both the native asset and fungible tokens.
package web3

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/types"
)

// receiptTimeout bounds how long a transfer waits for its receipt.
const receiptTimeout = 2 * time.Minute

// receiptPollInterval is the pause between receipt polls.
const receiptPollInterval = 2 * time.Second

// nativeTransferGas is the fixed gas cost of a plain value transfer.
const nativeTransferGas = 21000

const erc20ABIjson = `[{"name":"transfer","type":"function","stateMutability":"nonpayable",
"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
"outputs":[{"name":"","type":"bool"}]}]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIjson))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Client holds an RPC connection and the account that signs outgoing
// transfers.
type Client struct {
	client  *ethclient.Client
	privKey *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// New dials the RPC endpoint and prepares the signing account from a hex
// private key.
func New(ctx context.Context, rpcURL, hexPrivKey string) (*Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("could not dial rpc endpoint: %w", err)
	}
	privKey, err := ethcrypto.HexToECDSA(strings.TrimPrefix(hexPrivKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch chain ID: %w", err)
	}
	return &Client{
		client:  client,
		privKey: privKey,
		address: ethcrypto.PubkeyToAddress(privKey.PublicKey),
		chainID: chainID,
	}, nil
}

// Address returns the account funds are sent from.
func (c *Client) Address() common.Address {
	return c.address
}

// ChainID returns the connected chain's identifier.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Transfer sends amount of asset to the recipient and waits for the
// transaction receipt. A reverted transaction is an error.
func (c *Client) Transfer(ctx context.Context, asset types.Asset, to common.Address, amount *big.Int) error {
	var (
		tx  *ethtypes.Transaction
		err error
	)
	if asset.IsNative() {
		tx, err = c.sendTx(ctx, to, amount, nil)
	} else {
		var calldata []byte
		calldata, err = erc20ABI.Pack("transfer", to, amount)
		if err != nil {
			return fmt.Errorf("could not pack transfer calldata: %w", err)
		}
		tx, err = c.sendTx(ctx, asset.Token, nil, calldata)
	}
	if err != nil {
		return err
	}
	log.Infow("transfer submitted",
		"tx", tx.Hash().Hex(),
		"asset", asset.String(),
		"to", to.Hex(),
		"amount", amount.String())
	return c.waitMined(ctx, tx.Hash())
}

// sendTx builds, signs and broadcasts a transaction to dst, carrying value
// and/or calldata.
func (c *Client) sendTx(ctx context.Context, dst common.Address, value *big.Int, calldata []byte) (*ethtypes.Transaction, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("could not fetch nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch gas price: %w", err)
	}
	gasLimit := uint64(nativeTransferGas)
	if len(calldata) > 0 {
		gasLimit, err = c.client.EstimateGas(ctx, goethereum.CallMsg{
			From:  c.address,
			To:    &dst,
			Value: value,
			Data:  calldata,
		})
		if err != nil {
			return nil, fmt.Errorf("could not estimate gas: %w", err)
		}
	}
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &dst,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})
	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(c.chainID), c.privKey)
	if err != nil {
		return nil, fmt.Errorf("could not sign transaction: %w", err)
	}
	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("could not broadcast transaction: %w", err)
	}
	return signedTx, nil
}

// waitMined polls for the transaction receipt until it appears or the
// timeout elapses.
func (c *Client) waitMined(ctx context.Context, txHash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()
	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", txHash.Hex())
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for receipt of %s: %w", txHash.Hex(), ctx.Err())
		case <-time.After(receiptPollInterval):
		}
	}
}
