package websocket

type ConnectParams struct {
	UserID string `form:"user_id" binding:"max=128"` // session key, defaults to the configured user
}
