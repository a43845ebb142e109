package domain

// ConnID identifies one transport connection. Generated by the server.
type ConnID string

// Member represents a connection's participation in a room.
// No transport or lifecycle logic here.
type Member struct {
	Conn ConnID
	User Identity
	seq  uint64
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn ConnID, user Identity) Member {
	return Member{Conn: conn, User: user}
}

// WithSeq stamps the join order used for stable presence snapshots.
func (m Member) WithSeq(seq uint64) Member {
	m.seq = seq
	return m
}

func (m Member) Seq() uint64 { return m.seq }
