// internal/adapters/in/http/handlers/nft_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"narratives-nft/internal/adapters/in/http/middleware"
	usecase "narratives-nft/internal/application/usecase"
	nftdom "narratives-nft/internal/domain/nft"
	"narratives-nft/internal/program"
)

// NFTHandler は /nfts 関連のエンドポイントを担当します。
type NFTHandler struct {
	uc *usecase.NFTUsecase
}

func NewNFTHandler(uc *usecase.NFTUsecase) *NFTHandler {
	return &NFTHandler{uc: uc}
}

// issueRequest は POST /nfts の body。
// uri を省略した場合は description / image などから metadata JSON を作ってアップロードする。
type issueRequest struct {
	Name                 string            `json:"name"`
	Symbol               string            `json:"symbol"`
	URI                  string            `json:"uri"`
	SellerFeeBasisPoints *uint16           `json:"sellerFeeBasisPoints"`
	Description          string            `json:"description"`
	Image                string            `json:"image"`
	ExternalURL          string            `json:"externalUrl"`
	Attributes           map[string]string `json:"attributes"`
}

// ------------------------------------------------------------
// POST /nfts
// ------------------------------------------------------------
func (h *NFTHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid json",
			"detail": err.Error(),
		})
		return
	}

	uid, _ := middleware.CurrentUID(r)

	res, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Name:                 req.Name,
		Symbol:               req.Symbol,
		URI:                  req.URI,
		SellerFeeBasisPoints: req.SellerFeeBasisPoints,
		Description:          req.Description,
		Image:                req.Image,
		ExternalURL:          req.ExternalURL,
		Attributes:           req.Attributes,
		RequestedBy:          uid,
	})
	if err != nil {
		status, body := mapError(err)
		// 失敗した発行記録（status=failed）も返す
		if res.Issuance.ID != "" {
			body["issuance"] = res.Issuance
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// ------------------------------------------------------------
// GET /nfts?limit=
// ------------------------------------------------------------
func (h *NFTHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := h.uc.List(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if items == nil {
		items = []nftdom.Issuance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ------------------------------------------------------------
// GET /nfts/{mint}
// ------------------------------------------------------------
func (h *NFTHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.Get(r.Context(), chi.URLParam(r, "mint"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ------------------------------------------------------------
// GET /nfts/{mint}/addresses
// ------------------------------------------------------------
func (h *NFTHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.uc.Addresses(chi.URLParam(r, "mint"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addrs)
}

// ------------------------------------------------------------
// error helpers
// ------------------------------------------------------------

// domainReasons は事前検証エラーを、プログラム側と同じ理由コード名に揃える。
var domainReasons = []struct {
	err  error
	code string
}{
	{nftdom.ErrInvalidName, program.CodeNameTooLong.String()},
	{nftdom.ErrInvalidSymbol, program.CodeSymbolTooLong.String()},
	{nftdom.ErrInvalidURI, program.CodeURITooLong.String()},
	{nftdom.ErrRoyaltyOutOfRange, program.CodeRoyaltyOutOfRange.String()},
	{nftdom.ErrInvalidMint, "InvalidMint"},
}

// mapError は
//
//	検証エラー → 400（理由コード付き）/ AccountAlreadyInUse → 409
//	未発行 → 404 / 外部呼び出し・送信失敗 → 502
//
// に変換します。
func mapError(err error) (int, map[string]any) {
	for _, d := range domainReasons {
		if errors.Is(err, d.err) {
			return http.StatusBadRequest, map[string]any{"error": err.Error(), "code": d.code}
		}
	}

	var pe *program.Error
	if errors.As(err, &pe) {
		status := http.StatusBadRequest
		if pe.Code == program.CodeAccountAlreadyInUse {
			status = http.StatusConflict
		}
		body := map[string]any{
			"error":     pe.Message,
			"code":      pe.Code.String(),
			"errorCode": uint32(pe.Code),
		}
		if pe.Account != "" {
			body["account"] = pe.Account
		}
		return status, body
	}

	switch {
	case errors.Is(err, nftdom.ErrNotFound):
		return http.StatusNotFound, map[string]any{"error": "not_found"}
	case errors.Is(err, usecase.ErrNFTUsecaseNotConfigured):
		return http.StatusServiceUnavailable, map[string]any{"error": err.Error()}
	}

	var ce *program.CallError
	if errors.As(err, &ce) {
		return http.StatusBadGateway, map[string]any{
			"error":   err.Error(),
			"stage":   ce.Stage.String(),
			"step":    ce.Step,
			"program": ce.Program,
		}
	}
	if errors.Is(err, usecase.ErrIssueOnChain) {
		return http.StatusBadGateway, map[string]any{"error": err.Error()}
	}

	log.Printf("[nft_handler] internal error: %v", err)
	return http.StatusInternalServerError, map[string]any{"error": err.Error()}
}

func writeErr(w http.ResponseWriter, err error) {
	status, body := mapError(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
