package disclosure

import "slices"

// Special account names used by the platform and by redaction.
const (
	AccountReddit      = "reddit"
	AccountRedditLegal = "Reddit Legal"
	AccountAntiEvil    = "Anti-Evil Operations"
	AccountRedacted    = "[ redacted ]"
	AccountDeleted     = "[ deleted ]"
	AccountUnavailable = "[ unavailable ]"
	AccountAutoMod     = "AutoModerator"
)

var specialAccounts = []string{AccountReddit, AccountRedditLegal, AccountAntiEvil, AccountRedacted}

// Account is how a user appears in published text.
type Account struct {
	Name    string
	IsAdmin bool
}

// SpecialAccount resolves platform accounts that cannot be looked up. They
// always display as admins; the redacted placeholder displays as Anti-Evil
// Operations.
func SpecialAccount(name string) (Account, bool) {
	if !slices.Contains(specialAccounts, name) {
		return Account{}, false
	}
	if name == AccountRedacted {
		name = AccountAntiEvil
	}
	return Account{Name: name, IsAdmin: true}, true
}
