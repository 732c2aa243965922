package extraction

import "fmt"

const promptTemplate = `You extract payment details from bank SMS notifications.

Read the message below and return a single JSON object with exactly these keys:
- "amount": number, the transaction amount without currency symbols
- "merchant": string, the shop, person or service that was paid
- "date": string in the format YYYY-MM-DD
- "currency": string, ISO 4217 code such as INR or USD
- "referenceNumber": string, the bank or UPI reference number
- "description": string, any remark attached to the payment

Rules:
- Use null for any field you cannot extract with confidence.
- Do not guess an amount. If no amount is present, "amount" must be null.
- Return ONLY the JSON object. No prose, no Markdown, no code fences.

Message:
%s`

func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}
