package accounts

// Account file parsing
// Each non-empty line is "<privateKey>|<accountId>"
// Bad lines are reported back instead of failing the whole file

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Delimiter separates the private key from the account id
const Delimiter = "|"

var ErrNoAccounts = errors.New("no valid accounts found")

// Credential is one account loaded from the file
type Credential struct {
	PrivateKey string
	AccountID  string
	Line       int // 1-based line in the source file
}

// LineError describes a line that was excluded
type LineError struct {
	Line   int
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parse splits raw file text into credentials, keeping file order
func Parse(text string) ([]Credential, []LineError) {
	var creds []Credential
	var bad []LineError

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		cred, err := parseLine(line)
		if err != nil {
			bad = append(bad, LineError{Line: i + 1, Reason: err.Error()})
			continue
		}
		cred.Line = i + 1
		creds = append(creds, cred)
	}

	return creds, bad
}

func parseLine(line string) (Credential, error) {
	key, id, ok := strings.Cut(line, Delimiter)
	if !ok {
		return Credential{}, fmt.Errorf("missing %q delimiter", Delimiter)
	}
	key = strings.TrimSpace(key)
	id = strings.TrimSpace(id)
	if key == "" {
		return Credential{}, errors.New("empty private key")
	}
	if id == "" {
		return Credential{}, errors.New("empty account id")
	}
	if strings.Contains(id, Delimiter) {
		return Credential{}, fmt.Errorf("account id contains %q", Delimiter)
	}
	return Credential{PrivateKey: key, AccountID: id}, nil
}

// Load reads and parses the account file
// An unreadable file or a file without a single valid line is an error
func Load(path string) ([]Credential, []LineError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	creds, bad := Parse(string(data))
	if len(creds) == 0 {
		return nil, bad, fmt.Errorf("%s: %w", path, ErrNoAccounts)
	}
	return creds, bad, nil
}

// IDs returns account ids in file order
func IDs(creds []Credential) []string {
	ids := make([]string, len(creds))
	for i, c := range creds {
		ids[i] = c.AccountID
	}
	return ids
}
