package crawler

const (
	DefaultBaseURL        = "https://www.linkedin.com"
	DefaultConnectionsURL = "https://www.linkedin.com/mynetwork/invite-connect/connections/"

	// Appended to a profile link to open its contact-info overlay.
	ContactInfoPath = "detail/contact-info"

	SelectorLoginEmail    = `#login-email`
	SelectorLoginPassword = `#login-password`
	SelectorLoginSubmit   = `#login-submit`

	// Close button of the contact-info overlay.
	SelectorDismiss = `.artdeco-dismiss`
)
