// internal/adapters/out/db/issuance_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	nftdom "narratives-nft/internal/domain/nft"
)

// IssuanceRepositoryPG は nft_issuances テーブルの実装です（ドライバは lib/pq）。
type IssuanceRepositoryPG struct {
	DB *sql.DB
}

var _ nftdom.Repository = (*IssuanceRepositoryPG)(nil)

func NewIssuanceRepositoryPG(db *sql.DB) *IssuanceRepositoryPG {
	return &IssuanceRepositoryPG{DB: db}
}

const issuanceColumns = `
  id,
  name,
  symbol,
  uri,
  seller_fee_basis_points,
  requested_by,
  status,
  mint_address,
  metadata_address,
  holding_account,
  signature,
  error,
  created_at,
  minted_at`

// Save は id で upsert します。
func (r *IssuanceRepositoryPG) Save(ctx context.Context, in nftdom.Issuance) error {
	const q = `
INSERT INTO nft_issuances (` + issuanceColumns + `
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  status           = EXCLUDED.status,
  uri              = EXCLUDED.uri,
  mint_address     = EXCLUDED.mint_address,
  metadata_address = EXCLUDED.metadata_address,
  holding_account  = EXCLUDED.holding_account,
  signature        = EXCLUDED.signature,
  error            = EXCLUDED.error,
  minted_at        = EXCLUDED.minted_at
`
	_, err := r.DB.ExecContext(ctx, q,
		strings.TrimSpace(in.ID),
		in.Name,
		in.Symbol,
		in.URI,
		int(in.SellerFeeBasisPoints),
		in.RequestedBy,
		string(in.Status),
		nullString(in.MintAddress),
		nullString(in.MetadataAddress),
		nullString(in.HoldingAccount),
		nullString(in.Signature),
		in.Error,
		in.CreatedAt.UTC(),
		nullTime(in.MintedAt),
	)
	if err != nil {
		return fmt.Errorf("save issuance %s: %w", in.ID, err)
	}
	return nil
}

func (r *IssuanceRepositoryPG) GetByID(ctx context.Context, id string) (nftdom.Issuance, error) {
	q := `SELECT ` + issuanceColumns + ` FROM nft_issuances WHERE id = $1`
	return r.getOne(ctx, q, strings.TrimSpace(id))
}

func (r *IssuanceRepositoryPG) GetByMintAddress(ctx context.Context, mintAddress string) (nftdom.Issuance, error) {
	q := `SELECT ` + issuanceColumns + ` FROM nft_issuances WHERE mint_address = $1`
	return r.getOne(ctx, q, strings.TrimSpace(mintAddress))
}

func (r *IssuanceRepositoryPG) List(ctx context.Context, limit int) ([]nftdom.Issuance, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + issuanceColumns + ` FROM nft_issuances ORDER BY created_at DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []nftdom.Issuance
	for rows.Next() {
		in, err := scanIssuance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *IssuanceRepositoryPG) getOne(ctx context.Context, q string, arg string) (nftdom.Issuance, error) {
	if arg == "" {
		return nftdom.Issuance{}, nftdom.ErrNotFound
	}
	in, err := scanIssuance(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nftdom.Issuance{}, nftdom.ErrNotFound
		}
		return nftdom.Issuance{}, err
	}
	return in, nil
}

// ------------------------------------------------------------
// scan helpers
// ------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssuance(s rowScanner) (nftdom.Issuance, error) {
	var (
		in        nftdom.Issuance
		royalty   int
		status    string
		mint      sql.NullString
		metadata  sql.NullString
		holding   sql.NullString
		signature sql.NullString
		mintedAt  sql.NullTime
	)
	if err := s.Scan(
		&in.ID,
		&in.Name,
		&in.Symbol,
		&in.URI,
		&royalty,
		&in.RequestedBy,
		&status,
		&mint,
		&metadata,
		&holding,
		&signature,
		&in.Error,
		&in.CreatedAt,
		&mintedAt,
	); err != nil {
		return nftdom.Issuance{}, err
	}
	in.SellerFeeBasisPoints = uint16(royalty)
	in.Status = nftdom.IssuanceStatus(status)
	in.MintAddress = mint.String
	in.MetadataAddress = metadata.String
	in.HoldingAccount = holding.String
	in.Signature = signature.String
	in.CreatedAt = in.CreatedAt.UTC()
	if mintedAt.Valid {
		t := mintedAt.Time.UTC()
		in.MintedAt = &t
	}
	return in, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
