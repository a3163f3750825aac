// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"narratives-nft/internal/adapters/in/http/handlers"
	"narratives-nft/internal/adapters/in/http/middleware"
	usecase "narratives-nft/internal/application/usecase"
)

// RouterDeps は main.go（di.Container）から注入される依存。
type RouterDeps struct {
	NFTUC *usecase.NFTUsecase

	// nil なら POST /nfts は認証なし
	TokenVerifier middleware.TokenVerifier

	AllowedOrigins []string
}

// NewRouter は HTTP ルーティングを組み立てます。
//
//	GET  /healthz
//	POST /nfts
//	GET  /nfts?limit=
//	GET  /nfts/{mint}
//	GET  /nfts/{mint}/addresses
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// ※ CORS を外側にして、panic の 500 にもヘッダが付くようにする
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Recover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.NFTUC == nil {
		return r
	}

	h := handlers.NewNFTHandler(deps.NFTUC)
	auth := &middleware.AuthMiddleware{Verifier: deps.TokenVerifier}

	r.Route("/nfts", func(r chi.Router) {
		r.With(auth.Handler).Post("/", h.Issue)
		r.Get("/", h.List)
		r.Get("/{mint}", h.Get)
		r.Get("/{mint}/addresses", h.Addresses)
	})

	return r
}
