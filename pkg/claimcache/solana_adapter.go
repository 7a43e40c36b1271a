package claimcache

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
)

// SolanaScanner implements Scanner against a live RPC endpoint, filtering
// to ClaimStatus accounts via a memcmp on the account discriminator.
type SolanaScanner struct {
	Client *rpc.Client
}

func (s SolanaScanner) ScanClaimStatuses(ctx context.Context, programID solana.PublicKey) ([]RawAccount, error) {
	out, err := s.Client.GetProgramAccountsWithOpts(ctx, programID, &rpc.GetProgramAccountsOpts{
		Encoding: solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: onchain.DiscriminatorClaimStatus[:]}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claimcache: getProgramAccounts: %w", err)
	}

	raws := make([]RawAccount, 0, len(out))
	for _, kv := range out {
		raws = append(raws, RawAccount{Pubkey: kv.Pubkey, Data: kv.Account.Data.GetBinary()})
	}
	return raws, nil
}

// SolanaSubscriber implements Subscriber against a live websocket
// endpoint, streaming ClaimStatus account updates under the program via
// programSubscribe with a memcmp filter on the account discriminator. The
// cache checks the discriminator again when it decodes each update.
type SolanaSubscriber struct {
	WSEndpoint string
}

func (s SolanaSubscriber) SubscribeClaimStatuses(ctx context.Context, programID solana.PublicKey) (<-chan RawAccount, func() error, error) {
	client, err := ws.Connect(ctx, s.WSEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("claimcache: ws connect: %w", err)
	}

	sub, err := client.ProgramSubscribeWithOpts(programID, rpc.CommitmentConfirmed, solana.EncodingBase64, []rpc.RPCFilter{
		{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: onchain.DiscriminatorClaimStatus[:]}},
	})
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("claimcache: programSubscribe: %w", err)
	}

	out := make(chan RawAccount)
	go func() {
		defer close(out)
		for {
			got, err := sub.Recv(ctx)
			if err != nil {
				return
			}
			if got == nil || got.Value.Account == nil {
				continue
			}
			select {
			case out <- RawAccount{Pubkey: got.Value.Pubkey, Data: got.Value.Account.Data.GetBinary()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	closeFn := func() error {
		sub.Unsubscribe()
		client.Close()
		return nil
	}
	return out, closeFn, nil
}
