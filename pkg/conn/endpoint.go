package conn

// Kind distinguishes the control connection from media connections.
type Kind uint8

const (
	KindMessage Kind = iota + 1 // Control connection: JSON messages and heartbeats
	KindStream                  // Media connection: video frames for one media ID
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Endpoint is the immutable target of a connection.
type Endpoint struct {
	URL  string
	Kind Kind
}

// MessageEndpoint returns the control endpoint at url.
func MessageEndpoint(url string) Endpoint {
	return Endpoint{URL: url, Kind: KindMessage}
}

// StreamEndpoint returns a media endpoint at url.
func StreamEndpoint(url string) Endpoint {
	return Endpoint{URL: url, Kind: KindStream}
}
