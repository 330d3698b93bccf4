package ledger

import "github.com/surveydesk/backoffice/internal/table"

// Schema describes postings to the table pipeline.
var Schema = table.Schema{
	Entity:      "transaction",
	Searchable:  []string{"typeLabel", "type", "description"},
	Sortable:    []string{"date", "type", "debit", "credit", "runningBalance"},
	DefaultSort: table.SortSpec{Field: "date", Direction: table.Desc},
	Comparators: map[string]table.Comparator{
		"type": table.Ranked(
			string(TypeOpeningBalance), string(TypePayment), string(TypeCharge),
			string(TypeChargeCancellation), string(TypeCredit), string(TypeDebit),
			string(TypeRefund), string(TypePromotion), string(TypeFee),
		),
	},
}
