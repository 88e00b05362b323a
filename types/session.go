package types

// Profile is the denormalized user snapshot a client caches next to its
// session token. It mirrors the `usuario` object of the login response.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"nome"`
	Email    string `json:"email"`
	TenantID string `json:"tenantId"`
}

// Session is the client-side pair of session token and profile snapshot.
// The two fields are always written and cleared together.
type Session struct {
	Token   string  `json:"token"`
	Profile Profile `json:"usuario"`
}
