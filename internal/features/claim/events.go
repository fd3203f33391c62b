package claim

// Receipt log parsing
// NEP-297 events are logged as "EVENT_JSON:{...}"; claim rewards arrive as ft_mint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// EventMarker prefixes structured event payloads in receipt logs
	EventMarker = "EVENT_JSON:"
	// MintEvent is emitted once per claim with one entry per recipient
	MintEvent = "ft_mint"
)

var ErrMalformedEvent = errors.New("malformed event log")

// OwnerAmount is one minted entry of a claim
type OwnerAmount struct {
	OwnerID   string
	RawAmount string
	Amount    string // RawAmount / 1e6, six decimals
}

type eventLog struct {
	Standard string            `json:"standard"`
	Version  string            `json:"version"`
	Event    string            `json:"event"`
	Data     []json.RawMessage `json:"data"`
}

type mintData struct {
	OwnerID string          `json:"owner_id"`
	Amount  json.RawMessage `json:"amount"`
	Memo    string          `json:"memo"`
}

// ParseClaimLogs extracts every ft_mint entry from the logs, in log order.
// A marked log that does not decode aborts with ErrMalformedEvent.
func ParseClaimLogs(logs []string) ([]OwnerAmount, error) {
	var out []OwnerAmount

	for i, line := range logs {
		_, payload, found := strings.Cut(line, EventMarker)
		if !found {
			continue
		}

		var ev eventLog
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("%w: log %d: %v", ErrMalformedEvent, i, err)
		}
		if ev.Event != MintEvent {
			continue
		}

		for j, raw := range ev.Data {
			entry, err := parseMintEntry(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: log %d entry %d: %v", ErrMalformedEvent, i, j, err)
			}
			out = append(out, entry)
		}
	}

	return out, nil
}

func parseMintEntry(raw json.RawMessage) (OwnerAmount, error) {
	var data mintData
	if err := json.Unmarshal(raw, &data); err != nil {
		return OwnerAmount{}, err
	}
	if data.OwnerID == "" {
		return OwnerAmount{}, errors.New("missing owner_id")
	}

	// amounts are JSON strings per NEP-141, bare numbers are tolerated
	rawAmount := strings.Trim(string(data.Amount), `"`)
	amount, err := FormatAmount(rawAmount)
	if err != nil {
		return OwnerAmount{}, err
	}

	return OwnerAmount{OwnerID: data.OwnerID, RawAmount: rawAmount, Amount: amount}, nil
}
