package handler

import (
	"github.com/gin-gonic/gin"

	"markline/backend/internal/service"
	"markline/backend/pkg/response"
)

// MustGetCaller extracts the work-session triple injected by the auth
// middleware. On failure it writes a 401 response; the caller should
// return immediately when ok is false.
func MustGetCaller(c *gin.Context) (service.ScanCaller, bool) {
	sessionID, ok1 := getUint(c, "session_id")
	passID, ok2 := getUint(c, "pass_id")
	orderID, ok3 := getUint(c, "order_id")
	if !ok1 || !ok2 || !ok3 || passID == 0 {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.ScanCaller{}, false
	}
	return service.ScanCaller{
		SessionID: sessionID,
		PassID:    passID,
		OrderID:   orderID,
	}, true
}

func getUint(c *gin.Context, key string) (uint, bool) {
	v, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	u, ok := v.(uint)
	return u, ok
}
