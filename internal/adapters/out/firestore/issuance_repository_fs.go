// internal/adapters/out/firestore/issuance_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	nftdom "narratives-nft/internal/domain/nft"
)

// nft_issuances/{id}
type issuanceDoc struct {
	Name                 string     `firestore:"name"`
	Symbol               string     `firestore:"symbol"`
	URI                  string     `firestore:"uri"`
	SellerFeeBasisPoints int64      `firestore:"sellerFeeBasisPoints"`
	RequestedBy          string     `firestore:"requestedBy"`
	Status               string     `firestore:"status"`
	MintAddress          string     `firestore:"mintAddress"`
	MetadataAddress      string     `firestore:"metadataAddress"`
	HoldingAccount       string     `firestore:"holdingAccount"`
	Signature            string     `firestore:"signature"`
	Error                string     `firestore:"error"`
	CreatedAt            time.Time  `firestore:"createdAt"`
	MintedAt             *time.Time `firestore:"mintedAt"`
}

// IssuanceRepositoryFS は Issuance を Firestore に保存する実装です。
type IssuanceRepositoryFS struct {
	Client *firestore.Client
	col    string
}

var _ nftdom.Repository = (*IssuanceRepositoryFS)(nil)

const defaultIssuancesCollection = "nft_issuances"

func NewIssuanceRepositoryFS(client *firestore.Client, collection string) *IssuanceRepositoryFS {
	c := strings.TrimSpace(collection)
	if c == "" {
		c = defaultIssuancesCollection
	}
	return &IssuanceRepositoryFS{Client: client, col: c}
}

func (r *IssuanceRepositoryFS) collection() *firestore.CollectionRef {
	return r.Client.Collection(r.col)
}

// Save は id をドキュメント ID として丸ごと上書きします。
func (r *IssuanceRepositoryFS) Save(ctx context.Context, in nftdom.Issuance) error {
	if r == nil || r.Client == nil {
		return errors.New("IssuanceRepositoryFS: nil firestore client")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return errors.New("IssuanceRepositoryFS: id is empty")
	}
	if _, err := r.collection().Doc(id).Set(ctx, toDoc(in)); err != nil {
		return fmt.Errorf("firestore set %s/%s: %w", r.col, id, err)
	}
	return nil
}

func (r *IssuanceRepositoryFS) GetByID(ctx context.Context, id string) (nftdom.Issuance, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nftdom.Issuance{}, nftdom.ErrNotFound
	}
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nftdom.Issuance{}, nftdom.ErrNotFound
		}
		return nftdom.Issuance{}, err
	}
	return fromSnapshot(snap)
}

func (r *IssuanceRepositoryFS) GetByMintAddress(ctx context.Context, mintAddress string) (nftdom.Issuance, error) {
	mint := strings.TrimSpace(mintAddress)
	if mint == "" {
		return nftdom.Issuance{}, nftdom.ErrNotFound
	}
	iter := r.collection().Where("mintAddress", "==", mint).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nftdom.Issuance{}, nftdom.ErrNotFound
	}
	if err != nil {
		return nftdom.Issuance{}, err
	}
	return fromSnapshot(snap)
}

// List は createdAt の新しい順に最大 limit 件返します。
func (r *IssuanceRepositoryFS) List(ctx context.Context, limit int) ([]nftdom.Issuance, error) {
	q := r.collection().OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []nftdom.Issuance
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		in, err := fromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func toDoc(in nftdom.Issuance) issuanceDoc {
	return issuanceDoc{
		Name:                 in.Name,
		Symbol:               in.Symbol,
		URI:                  in.URI,
		SellerFeeBasisPoints: int64(in.SellerFeeBasisPoints),
		RequestedBy:          in.RequestedBy,
		Status:               string(in.Status),
		MintAddress:          in.MintAddress,
		MetadataAddress:      in.MetadataAddress,
		HoldingAccount:       in.HoldingAccount,
		Signature:            in.Signature,
		Error:                in.Error,
		CreatedAt:            in.CreatedAt.UTC(),
		MintedAt:             in.MintedAt,
	}
}

func fromSnapshot(snap *firestore.DocumentSnapshot) (nftdom.Issuance, error) {
	var d issuanceDoc
	if err := snap.DataTo(&d); err != nil {
		return nftdom.Issuance{}, fmt.Errorf("decode issuance %s: %w", snap.Ref.ID, err)
	}
	return nftdom.Issuance{
		ID:                   snap.Ref.ID,
		Name:                 d.Name,
		Symbol:               d.Symbol,
		URI:                  d.URI,
		SellerFeeBasisPoints: uint16(d.SellerFeeBasisPoints),
		RequestedBy:          d.RequestedBy,
		Status:               nftdom.IssuanceStatus(d.Status),
		MintAddress:          d.MintAddress,
		MetadataAddress:      d.MetadataAddress,
		HoldingAccount:       d.HoldingAccount,
		Signature:            d.Signature,
		Error:                d.Error,
		CreatedAt:            d.CreatedAt.UTC(),
		MintedAt:             d.MintedAt,
	}, nil
}
