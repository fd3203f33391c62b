package claim

import "strings"

// VillageMarker identifies the village share of a mint
const VillageMarker = "village"

// Result is the outcome of one claim attempt
type Result struct {
	AccountID       string
	TransactionHash string
	Amounts         []OwnerAmount
	TotalBalance    string // "" when the balance was not fetched
	Success         bool
	Error           string
}

// UserAmount is the amount minted to the claiming account
func (r Result) UserAmount() string {
	for _, a := range r.Amounts {
		if a.OwnerID == r.AccountID {
			return a.Amount
		}
	}
	return ZeroAmount
}

// VillageAmount is the amount minted to the account's village
func (r Result) VillageAmount() string {
	for _, a := range r.Amounts {
		if a.OwnerID != r.AccountID && strings.Contains(a.OwnerID, VillageMarker) {
			return a.Amount
		}
	}
	return ZeroAmount
}

// OtherAmounts are entries that belong to neither the account nor a village
func (r Result) OtherAmounts() []OwnerAmount {
	var out []OwnerAmount
	for _, a := range r.Amounts {
		if a.OwnerID == r.AccountID || strings.Contains(a.OwnerID, VillageMarker) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// PassSummary aggregates one pass over all accounts
type PassSummary struct {
	Results   []Result
	Succeeded int
	Failed    int
}
