package model

// Session is the credential pair returned by Login and Refresh.
type Session struct {
	AccessToken   string
	RefreshSecret string
	// ExpiresIn is the access-token lifetime in seconds.
	ExpiresIn          int64
	MustChangePassword bool
}
