package domain

// ExternalIdentity is a per-request assertion from a federated identity
// provider. It is never persisted as its own entity; it only drives the
// creation or refresh of a local User.
type ExternalIdentity struct {
	ExternalID string
	Email      string
	FullName   string
	PictureURL string
}
