package exit

import (
	"context"
	"fmt"

	"solana-gate/internal/blockchain"
	"solana-gate/internal/jupiter"
)

// JupiterSigner is the in-repo sample WalletSigner: it builds a swap
// via the Jupiter aggregator, signs it with a local keypair, and
// submits it through the RPC Client. Grounded directly on
// trading.Executor.executeSell's GetSwapTransaction -> SignTransaction
// -> SendTransaction sequence.
type JupiterSigner struct {
	wallet  *blockchain.Wallet
	rpc     *blockchain.RPCClient
	jupiter *jupiter.Client
}

// NewJupiterSigner wires a wallet, RPC client and Jupiter client into
// a WalletSigner.
func NewJupiterSigner(wallet *blockchain.Wallet, rpc *blockchain.RPCClient, jupiterClient *jupiter.Client) *JupiterSigner {
	return &JupiterSigner{wallet: wallet, rpc: rpc, jupiter: jupiterClient}
}

func (s *JupiterSigner) SignAndSubmitSell(ctx context.Context, mint string, amount uint64) (string, error) {
	swapTx, err := s.jupiter.GetSwapTransaction(ctx, mint, jupiter.SOLMint, s.wallet.Address(), amount)
	if err != nil {
		return "", fmt.Errorf("build swap transaction: %w", err)
	}

	signedTx, err := s.wallet.SignTransaction([]byte(swapTx))
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	txSig, err := s.rpc.SendTransaction(ctx, signedTx, true)
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	return txSig, nil
}
