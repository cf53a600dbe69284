package email

import (
	"fmt"
	"html"
)

// VerificationEmailTemplate generates HTML for email verification
func VerificationEmailTemplate(verificationURL string) string {
	link := html.EscapeString(verificationURL)
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Verify your Tweeter account</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse;">
        <tr>
            <td align="center" style="padding: 40px 0;">
                <table role="presentation" style="width: 600px; border-collapse: collapse; background-color: #ffffff; border-radius: 8px;">
                    <tr>
                        <td style="padding: 40px 30px; text-align: center; background-color: #1DA1F2; border-radius: 8px 8px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px;">Welcome to Tweeter!</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px 30px;">
                            <p style="margin: 0 0 20px; font-size: 16px; line-height: 24px; color: #333333;">
                                Thank you for signing up. Please verify your email address to activate your account.
                            </p>
                            <p style="margin: 30px 0; text-align: center;">
                                <a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #1DA1F2; color: #ffffff; text-decoration: none; border-radius: 4px; font-size: 16px;">Verify Email Address</a>
                            </p>
                            <p style="margin: 0 0 10px; font-size: 14px; color: #666666;">Or copy and paste this link into your browser:</p>
                            <p style="margin: 0 0 20px; font-size: 14px; color: #666666; word-break: break-all;">%s</p>
                            <p style="margin: 20px 0 0; font-size: 14px; color: #333333;"><strong>This link will expire in 24 hours.</strong></p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px; text-align: center; background-color: #f8f8f8; border-radius: 0 0 8px 8px;">
                            <p style="margin: 0; font-size: 12px; line-height: 18px; color: #999999;">
                                If you didn't create an account, you can safely ignore this email.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`, link, link)
}

// VerificationEmailText is the plain-text alternative.
func VerificationEmailText(verificationURL string) string {
	return fmt.Sprintf(`Welcome to Tweeter!

Thank you for signing up. Please verify your email address to activate your account.

Click here to verify: %s

This link will expire in 24 hours.

If you didn't create an account, you can safely ignore this email.
`, verificationURL)
}
