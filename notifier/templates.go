package notifier

import (
	"fmt"
	"html"
	"strings"

	"wallet-ledger/models"
)

func settledEmail(name string, t *models.WalletTransaction) (subject, body string) {
	label := "Deposit"
	if t.TransactionType == models.TransactionTypeWithdrawal {
		label = "Withdrawal"
	}

	var title, intro string
	if t.Status == models.TransactionStatusSuccessful {
		subject = label + " Completed"
		title = label + " Confirmed"
		intro = fmt.Sprintf("Your %s of <strong>%s</strong> has been completed.", strings.ToLower(label), t.Amount.StringFixed(2))
	} else {
		subject = label + " Failed"
		title = label + " Not Completed"
		intro = fmt.Sprintf("Your %s of <strong>%s</strong> could not be completed. Any held funds have been released.", strings.ToLower(label), t.Amount.StringFixed(2))
	}

	content := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s</p>
		<div class="info-box">
			<strong>Reference:</strong> %s<br>
			<strong>Method:</strong> %s<br>
			<strong>Details:</strong> %s
		</div>`,
		html.EscapeString(name), intro,
		html.EscapeString(t.Reference),
		html.EscapeString(t.PaymentMethod),
		html.EscapeString(t.Description),
	)
	return subject, layout(title, content)
}

func layout(title, content string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #0B2545; padding: 24px; text-align: center; color: #FFFFFF; }
			.content { padding: 32px 28px; color: #0B2545; line-height: 1.6; }
			.info-box { background: #EEF4ED; padding: 15px; border-radius: 4px; border-left: 4px solid #13315C; margin: 20px 0; }
			.footer { background-color: #F6F6F6; padding: 16px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>WALLET</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">This is an automated message about your wallet activity.</div>
		</div>
	</body>
	</html>
	`, title, content)
}
