package model

// Principal is a stable ACL identifier for an identity, independent of its
// display name. URIs are never reused across different identities.
type Principal struct {
	URI         string `json:"uri"`
	DisplayName string `json:"display_name"`
}
