package oauth

// Message types exchanged between the callback receiver and the bridge.
const (
	MessageTypeSuccess = "oauth-success"
	MessageTypeError   = "oauth-error"
)

// Message is the cross-context message the callback receiver posts back to
// the bridge after the provider redirect lands. The two contexts share no
// other state.
type Message struct {
	// Type is MessageTypeSuccess or MessageTypeError.
	Type string
	// Origin identifies the posting context. The bridge silently drops
	// messages whose origin is not its own; this is a security boundary, not
	// a parsing convenience.
	Origin string
	// AccessToken carries the provider token (implicit flow) or authorization
	// code (code flow) on success.
	AccessToken string
	// Provider is the provider recovered from the state parameter.
	Provider Provider
	// Error carries the failure reason on MessageTypeError.
	Error string
}
