// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"

	"cloud.google.com/go/storage"
	"github.com/blocto/solana-go-sdk/types"
	"google.golang.org/api/option"

	httpin "narratives-nft/internal/adapters/in/http"
	dbrepo "narratives-nft/internal/adapters/out/db"
	fs "narratives-nft/internal/adapters/out/firestore"
	gcso "narratives-nft/internal/adapters/out/gcs"
	mailadp "narratives-nft/internal/adapters/out/mail"
	"narratives-nft/internal/adapters/out/memory"
	usecase "narratives-nft/internal/application/usecase"
	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
	arweaveinfra "narratives-nft/internal/infra/arweave"
	appcfg "narratives-nft/internal/infra/config"
	"narratives-nft/internal/infra/database"
	firestoreinfra "narratives-nft/internal/infra/firestore"
	"narratives-nft/internal/infra/localchain"
	solanainfra "narratives-nft/internal/infra/solana"
	"narratives-nft/internal/localnet"
	"narratives-nft/internal/program"
)

// Container は main.go から使う依存オブジェクトの束。
type Container struct {
	Config *appcfg.Config

	NFTUC        *usecase.NFTUsecase
	FirebaseAuth *firebaseauth.Client

	// SOLANA_MODE=local のときだけ非 nil
	LocalChain *localchain.Chain

	firestore *firestoreinfra.ClientWrapper
	db        *database.DB
	gcs       *storage.Client
}

// NewContainer は環境変数から Container を組み立てます。
func NewContainer(ctx context.Context) (*Container, error) {
	return Build(ctx, appcfg.Load())
}

// Build は
//   - チェーン（localnet / RPC）
//   - 発行記録の保存先（Firestore / PostgreSQL / メモリ）
//   - metadata JSON の保存先（GCS / Arweave）
//   - 通知（SendGrid）と Firebase Auth
//
// をつないで NFTUsecase を作ります。外部リソースの初期化に失敗したものは WARN を出して外す。
func Build(ctx context.Context, cfg *appcfg.Config) (*Container, error) {
	c := &Container{Config: cfg}

	programID, ok := chain.ParsePublicKey(strings.TrimSpace(cfg.ProgramID))
	if !ok {
		return nil, fmt.Errorf("invalid NFT_PROGRAM_ID %q", cfg.ProgramID)
	}
	if _, err := program.DeriveAuthority(programID); err != nil {
		return nil, err
	}
	policy := program.ParseCreatorPolicy(cfg.CreatorPolicy)

	// 1. Chain
	var (
		issuer   nftdom.Issuer
		reader   nftdom.StateReader
		resolver nftdom.AddressResolver
	)
	if cfg.UseLocalChain() {
		payer, err := solanainfra.LoadPayer(ctx, cfg.PayerKeySecret, cfg.PayerKeyFile)
		if errors.Is(err, solanainfra.ErrPayerNotConfigured) {
			payer = types.NewAccount()
			log.Printf("[container] local payer generated: %s", payer.PublicKey.ToBase58())
		} else if err != nil {
			return nil, err
		}
		lc := localchain.New(localnet.NewBank(), program.New(programID, program.WithCreatorPolicy(policy)), payer)
		c.LocalChain = lc
		issuer, reader, resolver = lc, lc, lc
		log.Printf("[container] SOLANA_MODE=local %s", lc)
	} else {
		payer, err := solanainfra.LoadPayer(ctx, cfg.PayerKeySecret, cfg.PayerKeyFile)
		if err != nil {
			return nil, err
		}
		pc := solanainfra.NewProgramClient(cfg.SolanaRPCURL, payer, programID)
		issuer, resolver = pc, pc
		reader = solanainfra.NewStateReader(cfg.SolanaRPCURL, payer.PublicKey)
		log.Printf("[container] SOLANA_MODE=rpc rpc=%s program=%s", cfg.SolanaRPCURL, programID.ToBase58())
	}

	opts := []usecase.NFTUsecaseOption{
		usecase.WithDefaultRoyalty(cfg.DefaultRoyaltyPoints),
	}

	// 2. Repository（Firestore > PostgreSQL > メモリ）
	var repo nftdom.Repository
	switch {
	case cfg.FirestoreProjectID != "":
		fsw, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.firestore = fsw
		repo = fs.NewIssuanceRepositoryFS(fsw.Client, "")
	case cfg.DatabaseURL != "":
		db, err := database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.db = db
		repo = dbrepo.NewIssuanceRepositoryPG(db.Client)
	default:
		repo = memory.NewIssuanceRepositoryMem()
		log.Printf("[container] issuance repository: memory")
	}
	opts = append(opts, usecase.WithRepository(repo))

	// 3. Metadata store（GCS > Arweave > なし）
	switch {
	case cfg.GCSBucket != "":
		gcsClient, err := storage.NewClient(ctx, clientOptions(cfg)...)
		if err != nil {
			log.Printf("[container] WARN: GCS client init failed: %v", err)
			break
		}
		c.gcs = gcsClient
		opts = append(opts, usecase.WithMetadataStore(gcso.NewMetadataStoreGCS(gcsClient, cfg.GCSBucket, cfg.GCSPublicBase)))
		log.Printf("[container] metadata store: gcs bucket=%s", cfg.GCSBucket)
	case cfg.ArweaveBaseURL != "":
		opts = append(opts, usecase.WithMetadataStore(arweaveinfra.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey)))
		log.Printf("[container] metadata store: arweave baseURL=%s", cfg.ArweaveBaseURL)
	default:
		log.Printf("[container] metadata store not configured (uri is required)")
	}

	// 4. Notifier
	if cfg.SendGridAPIKey != "" && cfg.NotifyEmail != "" {
		mailer := mailadp.NewIssuanceMailer(
			mailadp.NewSendGridClient(cfg.SendGridAPIKey, cfg.SendGridFromName),
			cfg.SendGridFromEmail,
			cfg.NotifyEmail,
		)
		opts = append(opts, usecase.WithNotifier(mailer))
	}

	// 5. Firebase Auth（任意）
	if cfg.FirebaseProjectID != "" {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOptions(cfg)...)
		if err != nil {
			log.Printf("[container] WARN: firebase app init failed: %v", err)
		} else if authClient, err := fbApp.Auth(ctx); err != nil {
			log.Printf("[container] WARN: firebase auth init failed: %v", err)
		} else {
			c.FirebaseAuth = authClient
			log.Printf("[container] Firebase Auth initialized")
		}
	}

	c.NFTUC = usecase.NewNFTUsecase(issuer, reader, resolver, opts...)
	return c, nil
}

// RouterDeps は HTTP ルータに渡す依存を返します。
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		NFTUC:          c.NFTUC,
		AllowedOrigins: c.Config.AllowedOrigins,
	}
	// nil ポインタを interface に入れない
	if c.FirebaseAuth != nil {
		deps.TokenVerifier = c.FirebaseAuth
	}
	return deps
}

// Close は外部クライアントを閉じます。
func (c *Container) Close() {
	if c.firestore != nil {
		_ = c.firestore.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.gcs != nil {
		_ = c.gcs.Close()
	}
}

func clientOptions(cfg *appcfg.Config) []option.ClientOption {
	if cfg.FirestoreCredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.FirestoreCredentialsFile)}
}
