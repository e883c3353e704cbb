package aimatch

import (
	"fmt"
	"strings"

	"github.com/clubledger/reconcile/internal/domain/model"
)

const systemPrompt = "You reconcile bank transactions of a sports club with what members owe " +
	"(event registrations) and what the club owes (expense claims). " +
	"Always respond with raw JSON only, without Markdown code fences."

func writeTransaction(b *strings.Builder, tx *model.Transaction) {
	fmt.Fprintf(b, "- id: %s\n", tx.ID)
	fmt.Fprintf(b, "  date: %s\n", tx.Date.Format("2006-01-02"))
	fmt.Fprintf(b, "  amount: %s\n", tx.Amount.StringFixed(2))
	fmt.Fprintf(b, "  counterparty: %s\n", tx.Counterparty)
	fmt.Fprintf(b, "  communication: %s\n", tx.Communication)
	if tx.Details != "" {
		fmt.Fprintf(b, "  details: %s\n", tx.Details)
	}
}

func writeCandidates(b *strings.Builder, candidates []model.Payable) {
	b.WriteString("Candidate payables:\n")
	for _, p := range candidates {
		fmt.Fprintf(b, "- id: %s | type: %s | name: %s | amount: %s | date: %s\n",
			p.PayableID(), p.EntityType(), p.DisplayName(),
			p.AmountDue().StringFixed(2), p.DueDate().Format("2006-01-02"))
	}
}

func singlePrompt(tx *model.Transaction, candidates []model.Payable) string {
	var b strings.Builder
	b.WriteString("Find the payable settled by this bank transaction.\n\nTransaction:\n")
	writeTransaction(&b, tx)
	b.WriteString("\n")
	writeCandidates(&b, candidates)
	b.WriteString(`
Names may be inverted ("Surname Firstname") or appear only in the communication.
One transaction may pay for several people; mention it in extracted_info.

Return a single JSON object:
{"payable_id": "<id or null>", "confidence": <0-100>, "reasoning": "<short>", "extracted_info": {}}
Use null for payable_id when no candidate fits.
`)
	return b.String()
}

func batchPrompt(txs []*model.Transaction, candidates []model.Payable) string {
	var b strings.Builder
	b.WriteString("Find the payable settled by each bank transaction.\n\nTransactions:\n")
	for _, tx := range txs {
		writeTransaction(&b, tx)
	}
	b.WriteString("\n")
	writeCandidates(&b, candidates)
	b.WriteString(`
Each payable settles at most one transaction.

Return a JSON array with one object per transaction:
[{"transaction_id": "<id>", "payable_id": "<id or null>", "confidence": <0-100>, "reasoning": "<short>", "extracted_info": {}}]
`)
	return b.String()
}
