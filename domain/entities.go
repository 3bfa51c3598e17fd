package domain

// AuthState represents where the user is in the login lifecycle. It is
// persisted on every change so a restarted context resumes where the
// previous one left off.
type AuthState string

const (
	AuthStateUnauthenticated      AuthState = "UNAUTHENTICATED"
	AuthStateAwaitingSecondFactor AuthState = "AWAITING_SECOND_FACTOR"
	AuthStateAuthenticated        AuthState = "AUTHENTICATED"
)

// Storage keys shared by every context. One value per key, no transactions.
const (
	KeyAuthState           = "bsky_auth_state"
	KeyClientSession       = "bsky_client_session"
	KeyIdentifier          = "bsky_user_id"
	KeyPassword            = "bsky_password"
	KeySecondFactorPending = "bsky_show_auth_factor_token_input"
	KeyDraftPost           = "draft_post"
)

// DefaultBskyDomain is appended to bare handles during identifier normalization.
const DefaultBskyDomain = "bsky.social"

// Marker strings used to classify remote login errors. Bluesky signals a
// pending email code through an error response rather than a dedicated status,
// so classification is by substring match on the message.
const (
	SecondFactorMarker = "A sign in code has been sent to your email address"
	RateLimitMarker    = "Bluesky is busy, please try again later."
)

// Credentials exist only while no session does. They are wiped, in memory and
// in storage, the moment the auth state settles.
type Credentials struct {
	Identifier string
	Password   string
}

// Session is the opaque blob returned by a successful login. Its presence in
// storage is the source of truth for "is authenticated" across context restarts.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	Email      string `json:"email,omitempty"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

// DraftPost is the user's in-progress note. It lives in storage from the
// moment of capture until a publish succeeds, so closing the UI loses nothing.
type DraftPost struct {
	Title    string `json:"title"`
	Quote    string `json:"quote"`
	URL      string `json:"url"`
	Comments string `json:"comments"`
}

// Empty reports whether the draft carries no user-visible content.
func (d DraftPost) Empty() bool {
	return d.Title == "" && d.Quote == "" && d.URL == "" && d.Comments == ""
}

// PageData is what the content probe reads off the active page.
type PageData struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
