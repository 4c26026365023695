package handlers

import (
	"html"

	"github.com/gofiber/fiber/v2"
)

const legalStyle = `<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

type LegalHandler struct {
	marketName   string
	contactEmail string
}

func NewLegalHandler(marketName, contactEmail string) *LegalHandler {
	return &LegalHandler{marketName: html.EscapeString(marketName), contactEmail: html.EscapeString(contactEmail)}
}

func (h *LegalHandler) page(title, body string) string {
	return `<!DOCTYPE html>
<html><head><title>` + title + ` - ` + h.marketName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
` + legalStyle + `
</head><body>
<h1>` + title + `</h1>
<p>Last updated: March 2026</p>
` + body + `
<h2>Contact</h2>
<p>For questions, contact us at ` + h.contactEmail + `</p>
</body></html>`
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(h.page("Privacy Policy", `
<h2>Information We Collect</h2>
<p>Vendors provide a name, email address and business profile. Shoppers browse without an account; we keep a session identifier and whether the age confirmation was given.</p>
<h2>How We Use Your Information</h2>
<p>Vendor emails are used to sign in and to send listing decisions. Download counts are aggregated per app and per day.</p>
<h2>Data Storage</h2>
<p>We do not sell personal information to third parties.</p>`))
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(h.page("Terms of Service", `
<h2>Listings</h2>
<p>Every app is reviewed before it appears on `+h.marketName+`. Edited listings return to review. We may reject or remove listings that break these terms.</p>
<h2>Vendor Plans</h2>
<p>Standard vendors may list up to three apps. Premium vendors may list any number of apps. Downgrading keeps existing listings but blocks new uploads above the standard limit.</p>
<h2>Mature Content</h2>
<p>Apps marked mature are shown only after the shopper confirms their age.</p>`))
}
