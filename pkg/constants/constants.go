package constants

type ContextKey string

const (
	LoggerKey       ContextKey = "logger"
	PoolKey         ContextKey = "pool"
	TxKey           ContextKey = "tx"
	UserIDKey       ContextKey = "userID"
	RequestStart    ContextKey = "requestStart"
	RequestIDKey    ContextKey = "requestID"
	AuthTokenKey    ContextKey = "authToken"
	AppKey          ContextKey = "app"
	ContentLangKey  ContextKey = "contentLanguage"
	SessionIDHeader string     = "X-Session-Id"
)
