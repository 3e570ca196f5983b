package middlewares

import (
	"github.com/gin-gonic/gin"

	"foodlog/services"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "sessionID"
	registryKey   = "sessionRegistry"
)

// Session resolves the caller's session from the X-Session-ID header (or the
// "session" query parameter, for websocket clients). A session id is issued
// when none is given and echoed in the response. The entry store itself is
// only created by the first write, see Store.
func Session(reg *services.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id = c.Query("session")
		}
		if id == "" {
			id = reg.NewSessionID()
		}
		c.Set(sessionKey, id)
		c.Set(registryKey, reg)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

func SessionID(c *gin.Context) string { return c.GetString(sessionKey) }

func registry(c *gin.Context) *services.SessionRegistry {
	v, _ := c.Get(registryKey)
	reg, _ := v.(*services.SessionRegistry)
	return reg
}

// Store returns the session's entry store, creating it on first use. Use it
// on routes that write.
func Store(c *gin.Context) *services.EntryStore {
	return registry(c).Store(SessionID(c))
}

// Peek returns the session's store for reading. A session that never wrote
// gets an empty store that is not kept.
func Peek(c *gin.Context) *services.EntryStore {
	id := SessionID(c)
	if st, ok := registry(c).Lookup(id); ok {
		return st
	}
	return services.NewEntryStore(id)
}
