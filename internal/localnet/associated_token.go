package localnet

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
)

// associated token account の命令（データ空 or 0 = Create, 1 = CreateIdempotent）
const (
	ataIxCreate           uint8 = 0
	ataIxCreateIdempotent uint8 = 1
)

// processAssociatedToken は (owner, mint) の ATA を作成します。
// Accounts: 0. [writable,signer] funder  1. [writable] ata  2. [] owner  3. [] mint
func processAssociatedToken(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
	ix := ataIxCreate
	if len(data) > 0 {
		ix = data[0]
	}
	if ix != ataIxCreate && ix != ataIxCreateIdempotent {
		return fmt.Errorf("%w: associated token instruction %d", ErrInvalidInstruction, ix)
	}
	if err := requireAccounts(metas, 4); err != nil {
		return err
	}
	funder, ataKey, owner, mint := metas[0].PubKey, metas[1].PubKey, metas[2].PubKey, metas[3].PubKey

	want, _, err := chain.FindHoldingAccount(owner, mint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}
	if want != ataKey {
		return fmt.Errorf("%w: associated token address mismatch", ErrInvalidSeeds)
	}

	mintAcc := ic.get(mint)
	if mintAcc.Owner != chain.TokenProgramID || !mintAcc.exists() {
		return fmt.Errorf("%w: mint %s", ErrInvalidAccountOwner, mint.ToBase58())
	}

	cur := ic.get(ataKey)
	if cur.exists() {
		if ix == ataIxCreateIdempotent && cur.Owner == chain.TokenProgramID {
			ta, err := chain.DecodeTokenAccount(cur.Data)
			if err == nil && ta.Mint == mint && ta.Owner == owner {
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, ataKey.ToBase58())
	}

	if !ic.IsSigner(funder) {
		return fmt.Errorf("%w: funder %s", ErrMissingSignature, funder.ToBase58())
	}
	rent, err := ic.payRent(funder, chain.TokenAccountSize)
	if err != nil {
		return err
	}
	taData, err := newTokenAccountData(mint, owner)
	if err != nil {
		return err
	}
	return ic.set(ataKey, Account{
		Lamports: rent,
		Owner:    chain.TokenProgramID,
		Data:     taData,
	})
}
