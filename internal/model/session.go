package model

// Session carries the per-request identity state. The identity fields are
// filled once by the identity resolver, the owner fields once by the ACL
// gate when the request first touches an owned path. After binding, the
// struct is treated as read-only by everything downstream.
type Session struct {
	// Locally authenticated channel, zero values when not logged in.
	ChannelID      int64
	AccountID      int64
	ChannelAddress string
	Timezone       string

	// Observer is the visiting identity's stable hash, "" for anonymous.
	// A logged-in channel observes as its own hash.
	Observer string

	// Owning channel of the currently visited path, bound by the ACL gate.
	OwnerID      int64
	OwnerHash    string
	OwnerAddress string
}

func (s *Session) LoggedIn() bool {
	return s.ChannelID != 0
}

func (s *Session) Anonymous() bool {
	return s.Observer == ""
}

// BindOwner records the owning channel for the rest of the request. It is
// called at most once per request.
func (s *Session) BindOwner(ch *Channel) {
	s.OwnerID = ch.ID
	s.OwnerHash = ch.Hash
	s.OwnerAddress = ch.Address
}
