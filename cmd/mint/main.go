// cmd/mint/main.go
//
// 1 件だけ NFT を発行するコマンド（Cloud Run と同じ環境変数を使う）。
//
//	SOLANA_MODE=rpc SOLANA_PAYER_KEY_FILE=~/.config/solana/id.json \
//	  go run ./cmd/mint -name "Narratives #1" -symbol NARR -uri https://example.com/1.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	usecase "narratives-nft/internal/application/usecase"
	"narratives-nft/internal/platform/di"
)

func main() {
	var (
		name    = flag.String("name", "", "NFT name (<= 32 bytes)")
		symbol  = flag.String("symbol", "", "NFT symbol (<= 10 bytes)")
		uri     = flag.String("uri", "", "metadata JSON uri (<= 200 bytes); empty = upload generated JSON")
		royalty = flag.Int("royalty", -1, "seller fee basis points (0-10000); -1 = NFT_DEFAULT_ROYALTY_BPS")
		image   = flag.String("image", "", "image url for generated metadata JSON")
		desc    = flag.String("description", "", "description for generated metadata JSON")
		timeout = flag.Duration("timeout", 60*time.Second, "overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cont, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("[mint] failed to init container: %v", err)
	}
	defer cont.Close()

	in := usecase.IssueInput{
		Name:        *name,
		Symbol:      *symbol,
		URI:         *uri,
		Image:       *image,
		Description: *desc,
		RequestedBy: "cli",
	}
	if *royalty >= 0 {
		if *royalty > 0xFFFF {
			log.Fatalf("[mint] royalty out of range: %d", *royalty)
		}
		bps := uint16(*royalty)
		in.SellerFeeBasisPoints = &bps
	}

	res, err := cont.NFTUC.Issue(ctx, in)
	if err != nil {
		log.Fatalf("[mint] issue FAILED: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("[mint] encode result: %v", err)
	}
}
