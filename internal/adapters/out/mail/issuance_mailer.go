package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	nftdom "narratives-nft/internal/domain/nft"
)

// EmailClient はメール送信の最小インターフェース（テストで差し替える）。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient interface
type SendGridClient struct {
	apiKey   string
	fromName string
}

var _ EmailClient = (*SendGridClient)(nil)

func NewSendGridClient(apiKey, fromName string) *SendGridClient {
	return &SendGridClient{apiKey: apiKey, fromName: fromName}
}

// Send sends an email using SendGrid
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d, body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("[sendgrid] mail sent: status=%d to=%s subject=%s", response.StatusCode, to, subject)
	return nil
}

// IssuanceMailer は発行完了を運用担当に知らせる Notifier 実装です。
type IssuanceMailer struct {
	Client EmailClient
	From   string
	To     string
}

var _ nftdom.Notifier = (*IssuanceMailer)(nil)

func NewIssuanceMailer(client EmailClient, from, to string) *IssuanceMailer {
	return &IssuanceMailer{Client: client, From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
}

func (m *IssuanceMailer) NotifyIssued(ctx context.Context, in nftdom.Issuance) error {
	if m == nil || m.Client == nil || m.To == "" {
		return nil
	}
	subject := fmt.Sprintf("[Narratives] NFT minted: %s", in.Name)
	return m.Client.Send(ctx, m.From, m.To, subject, buildIssuedBody(in))
}

func buildIssuedBody(in nftdom.Issuance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NFT が発行されました。\n\n")
	fmt.Fprintf(&b, "Name:      %s\n", in.Name)
	fmt.Fprintf(&b, "Symbol:    %s\n", in.Symbol)
	fmt.Fprintf(&b, "URI:       %s\n", in.URI)
	fmt.Fprintf(&b, "Royalty:   %d bps\n", in.SellerFeeBasisPoints)
	fmt.Fprintf(&b, "Mint:      %s\n", in.MintAddress)
	fmt.Fprintf(&b, "Metadata:  %s\n", in.MetadataAddress)
	fmt.Fprintf(&b, "Account:   %s\n", in.HoldingAccount)
	fmt.Fprintf(&b, "Signature: %s\n", in.Signature)
	if in.MintedAt != nil {
		fmt.Fprintf(&b, "MintedAt:  %s\n", in.MintedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}
