package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"daicho/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendRunCompletedEmail(ctx context.Context, toEmail, runID, downloadURL string) error {
	subject := fmt.Sprintf("写真台帳の作成が完了しました (run %s)", runID)
	htmlBody := buildRunCompletedHTML(runID, downloadURL)
	textBody := fmt.Sprintf("写真台帳パイプライン run %s が完了しました。\n\n成果物のダウンロード:\n%s\n\nリンクには有効期限があります。", runID, downloadURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) SendRunFailedEmail(ctx context.Context, toEmail, runID, reason string) error {
	subject := fmt.Sprintf("写真台帳の作成に失敗しました (run %s)", runID)
	htmlBody := buildRunFailedHTML(runID, reason)
	textBody := fmt.Sprintf("写真台帳パイプライン run %s が失敗しました。\n\n理由:\n%s", runID, reason)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildRunCompletedHTML(runID, downloadURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">写真台帳の作成が完了しました</h2>
  <p>パイプライン run %s の処理が完了し、成果物をダウンロードできます。</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">成果物をダウンロード</a>
  </p>
  <p>リンクが開けない場合は、次のURLをブラウザに貼り付けてください:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <p style="color: #999; font-size: 12px;">リンクには有効期限があります。</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">daicho - 工事写真台帳パイプライン</p>
</body>
</html>`, runID, downloadURL, downloadURL)
}

func buildRunFailedHTML(runID, reason string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">写真台帳の作成に失敗しました</h2>
  <p>パイプライン run %s の処理中にエラーが発生しました。</p>
  <p style="word-break: break-all; color: #b91c1c; background: #fef2f2; padding: 12px; border-radius: 6px;">%s</p>
  <p>写真フォルダとマスタ設定を確認のうえ、再実行してください。</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">daicho - 工事写真台帳パイプライン</p>
</body>
</html>`, runID, reason)
}
