// internal/application/usecase/nft_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	nftdom "narratives-nft/internal/domain/nft"
)

var (
	ErrNFTUsecaseNotConfigured = errors.New("nft usecase is not properly initialized")
	// ErrIssueOnChain はチェーン送信（mint_nft）の失敗。元のエラーも一緒に包まれる。
	ErrIssueOnChain = errors.New("issue nft on chain")
)

// IssueInput は 1 件の発行リクエスト。
// URI が空で MetadataStore がある場合は、metadata JSON を生成・アップロードして URI を決める。
type IssueInput struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints *uint16 // nil なら既定値

	Description string
	Image       string
	ExternalURL string
	Attributes  map[string]string

	RequestedBy string
}

// IssueResult は発行記録とチェーン送信結果。
type IssueResult struct {
	Issuance nftdom.Issuance `json:"issuance"`
	Receipt  nftdom.Receipt  `json:"receipt"`
}

// NFTView は GET /nfts/{mint} の返却値（オンチェーン状態 + 発行記録）。
type NFTView struct {
	Asset    nftdom.Asset     `json:"asset"`
	Issuance *nftdom.Issuance `json:"issuance,omitempty"`
}

// NFTUsecase は NFT 発行のアプリケーションサービスです。
type NFTUsecase struct {
	issuer   nftdom.Issuer
	reader   nftdom.StateReader
	resolver nftdom.AddressResolver
	repo     nftdom.Repository
	store    nftdom.MetadataStore
	notifier nftdom.Notifier
	builder  *NFTMetadataBuilder

	defaultRoyalty uint16
	now            func() time.Time
	newID          func() string
}

// NFTUsecaseOption は任意の依存を差し込むためのオプション。
type NFTUsecaseOption func(*NFTUsecase)

func WithRepository(r nftdom.Repository) NFTUsecaseOption {
	return func(u *NFTUsecase) { u.repo = r }
}

func WithMetadataStore(s nftdom.MetadataStore) NFTUsecaseOption {
	return func(u *NFTUsecase) { u.store = s }
}

func WithNotifier(n nftdom.Notifier) NFTUsecaseOption {
	return func(u *NFTUsecase) { u.notifier = n }
}

func WithDefaultRoyalty(bps uint16) NFTUsecaseOption {
	return func(u *NFTUsecase) { u.defaultRoyalty = bps }
}

func WithClock(now func() time.Time) NFTUsecaseOption {
	return func(u *NFTUsecase) { u.now = now }
}

// NewNFTUsecase は NFTUsecase のコンストラクタです。
func NewNFTUsecase(
	issuer nftdom.Issuer,
	reader nftdom.StateReader,
	resolver nftdom.AddressResolver,
	opts ...NFTUsecaseOption,
) *NFTUsecase {
	u := &NFTUsecase{
		issuer:   issuer,
		reader:   reader,
		resolver: resolver,
		builder:  NewNFTMetadataBuilder(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Issue は 1 NFT を発行します。
//
//  1. 入力を正規化して検証（uri 以外）
//  2. uri が空なら metadata JSON を生成して MetadataStore に置く
//  3. pending の発行記録を保存
//  4. mint_nft を送信（1 トランザクション、失敗時はチェーン上に何も残らない）
//  5. 記録を minted / failed に更新し、成功時は通知（best-effort）
func (u *NFTUsecase) Issue(ctx context.Context, in IssueInput) (IssueResult, error) {
	if u == nil || u.issuer == nil {
		return IssueResult{}, ErrNFTUsecaseNotConfigured
	}

	royalty := u.defaultRoyalty
	if in.SellerFeeBasisPoints != nil {
		royalty = *in.SellerFeeBasisPoints
	}
	p := nftdom.IssueParams{
		Name:                 in.Name,
		Symbol:               in.Symbol,
		URI:                  in.URI,
		SellerFeeBasisPoints: royalty,
	}.Normalize()

	if err := p.ValidateFields(); err != nil {
		return IssueResult{}, err
	}

	id := u.newID()

	if p.URI == "" && u.store != nil {
		body, err := u.builder.Build(MetadataInput{
			Name:                 p.Name,
			Symbol:               p.Symbol,
			Description:          in.Description,
			Image:                in.Image,
			ExternalURL:          in.ExternalURL,
			SellerFeeBasisPoints: p.SellerFeeBasisPoints,
			Attributes:           in.Attributes,
		})
		if err != nil {
			return IssueResult{}, fmt.Errorf("build metadata json: %w", err)
		}
		uri, err := u.store.PutMetadata(ctx, id, body)
		if err != nil {
			return IssueResult{}, fmt.Errorf("upload metadata json: %w", err)
		}
		p.URI = strings.TrimSpace(uri)
	}

	if err := p.Validate(); err != nil {
		return IssueResult{}, err
	}

	rec := nftdom.NewIssuance(id, p, in.RequestedBy, u.now())
	if err := u.save(ctx, rec); err != nil {
		return IssueResult{}, err
	}

	receipt, err := u.issuer.IssueNFT(ctx, p)
	if err != nil {
		rec.MarkFailed(err.Error())
		if saveErr := u.save(ctx, rec); saveErr != nil {
			log.Printf("[nft_usecase] save failed issuance FAILED id=%s err=%v", id, saveErr)
		}
		log.Printf("[nft_usecase] issue FAILED id=%s name=%q err=%v", id, p.Name, err)
		return IssueResult{Issuance: rec}, fmt.Errorf("%w: %w", ErrIssueOnChain, err)
	}

	rec.MarkMinted(receipt, u.now())
	if err := u.save(ctx, rec); err != nil {
		// チェーン上は発行済みなので結果は返す
		return IssueResult{Issuance: rec, Receipt: receipt}, err
	}

	log.Printf("[nft_usecase] issued id=%s mint=%s sig=%s", id, maskShort(receipt.MintAddress), maskShort(receipt.Signature))

	if u.notifier != nil {
		if err := u.notifier.NotifyIssued(ctx, rec); err != nil {
			log.Printf("[nft_usecase] notify FAILED id=%s err=%v", id, err)
		}
	}

	return IssueResult{Issuance: rec, Receipt: receipt}, nil
}

// Get はオンチェーン状態と（あれば）発行記録を返します。
func (u *NFTUsecase) Get(ctx context.Context, mintAddress string) (NFTView, error) {
	if u == nil || u.reader == nil {
		return NFTView{}, ErrNFTUsecaseNotConfigured
	}
	mint := strings.TrimSpace(mintAddress)
	if mint == "" {
		return NFTView{}, nftdom.ErrInvalidMint
	}

	asset, err := u.reader.ReadAsset(ctx, mint)
	if err != nil {
		return NFTView{}, err
	}
	view := NFTView{Asset: asset}

	if u.repo != nil {
		rec, err := u.repo.GetByMintAddress(ctx, mint)
		switch {
		case err == nil:
			view.Issuance = &rec
		case errors.Is(err, nftdom.ErrNotFound):
		default:
			log.Printf("[nft_usecase] lookup issuance FAILED mint=%s err=%v", maskShort(mint), err)
		}
	}
	return view, nil
}

// List は発行記録を新しい順に返します。
func (u *NFTUsecase) List(ctx context.Context, limit int) ([]nftdom.Issuance, error) {
	if u == nil || u.repo == nil {
		return nil, ErrNFTUsecaseNotConfigured
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return u.repo.List(ctx, limit)
}

// Addresses は mint に対して導出される PDA / ATA を返します。
func (u *NFTUsecase) Addresses(mintAddress string) (nftdom.Addresses, error) {
	if u == nil || u.resolver == nil {
		return nftdom.Addresses{}, ErrNFTUsecaseNotConfigured
	}
	return u.resolver.ResolveAddresses(strings.TrimSpace(mintAddress))
}

func (u *NFTUsecase) save(ctx context.Context, rec nftdom.Issuance) error {
	if u.repo == nil {
		return nil
	}
	if err := u.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save issuance %s: %w", rec.ID, err)
	}
	return nil
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
