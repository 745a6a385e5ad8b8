package storage

// Keys of the persisted session state. The session user is JSON-serialised; tokens are
// stored as the raw token strings.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeySessionUser  = "sessionUser"
)

// KV is the key-value storage backing a single browser session
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(keys ...string)
	Clear()
}
