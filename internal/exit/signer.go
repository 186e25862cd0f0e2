package exit

import (
	"context"
)

// WalletSigner is the collaborator interface the Auto-Exit Engine
// calls to request a signed sell swap. Wallet signing/key custody is
// explicitly out of core gate scope (spec §1); this models it as a
// boundary so any signer (local keypair, remote HSM, manual approval
// queue) can be plugged in.
type WalletSigner interface {
	// SignAndSubmitSell signs and submits a sell of amount raw token
	// units of mint, returning the transaction signature once the
	// network has accepted it.
	SignAndSubmitSell(ctx context.Context, mint string, amount uint64) (txSig string, err error)
}

// WalletSignerFunc adapts a plain function to WalletSigner.
type WalletSignerFunc func(ctx context.Context, mint string, amount uint64) (string, error)

func (f WalletSignerFunc) SignAndSubmitSell(ctx context.Context, mint string, amount uint64) (string, error) {
	return f(ctx, mint, amount)
}
