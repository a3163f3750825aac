// cmd/keygen/main.go
//
// payer 用の keypair JSON（solana-keygen と同じ [u8;64] 形式）を作ります。
// Secret Manager に入れる場合は -out - で標準出力へ。
package main

import (
	"flag"
	"log"
	"os"

	"github.com/blocto/solana-go-sdk/types"

	solanainfra "narratives-nft/internal/infra/solana"
)

func main() {
	out := flag.String("out", "payer.json", "output path ('-' for stdout)")
	flag.Parse()

	acc := types.NewAccount()
	body, err := solanainfra.EncodeKeypairJSON(acc)
	if err != nil {
		log.Fatalf("[keygen] encode keypair: %v", err)
	}

	if *out == "-" {
		_, _ = os.Stdout.Write(append(body, '\n'))
	} else {
		if err := os.WriteFile(*out, body, 0o600); err != nil {
			log.Fatalf("[keygen] write %s: %v", *out, err)
		}
		log.Printf("[keygen] wrote %s", *out)
	}
	log.Printf("[keygen] pubkey=%s", acc.PublicKey.ToBase58())
}
