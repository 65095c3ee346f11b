package model

// UserAuth is the identity/token pair of the logged in user
type UserAuth struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// AccountStatus is the coarse login state shown to the player
type AccountStatus string

const (
	AccountUnknown   AccountStatus = "unknown"
	AccountLoggedOut AccountStatus = "logged_out"
	AccountLoggedIn  AccountStatus = "logged_in"
)

// AccountState is the account variant exposed to the presentation layer.
// AccountName is only set when Status is AccountLoggedIn.
type AccountState struct {
	Status      AccountStatus `json:"status"`
	AccountName string        `json:"account_name,omitempty"`
}

// LoggedIn builds the logged in account state
func LoggedIn(accountName string) AccountState {
	return AccountState{Status: AccountLoggedIn, AccountName: accountName}
}

// LoggedOut builds the logged out account state
func LoggedOut() AccountState {
	return AccountState{Status: AccountLoggedOut}
}
