package client

// CredentialSource supplies the session credential for the current request
// scope. The producing environment implements it over the ambient incoming
// request; the credential is owned by that request and never outlives it.
type CredentialSource interface {
	// Credential returns the credential to attach to outgoing fetches.
	// The boolean is false when no credential is available, in which case
	// requests go out unmodified.
	Credential() (string, bool)
}

// Static is a fixed credential source. Useful in tests and for
// service-to-service calls with a preconfigured session.
type Static string

func (s Static) Credential() (string, bool) {
	return string(s), s != ""
}
