package middleware

import (
	"net/http"

	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHeaderKey lets clients state which tenant they expect to act on
const TenantHeaderKey = "X-Tenant-ID"

// TenantMiddleware requires the tenant established by the JWT middleware.
// The token is the only source of truth; an X-Tenant-ID header is accepted
// only when it names the same tenant, so a client cannot switch tenants by
// editing a header.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := GetTenantID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Contexte locataire manquant.", GetRequestID(c)))
			return
		}

		if header := c.GetHeader(TenantHeaderKey); header != "" {
			requested, err := uuid.Parse(header)
			if err != nil || requested != tenantID {
				c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeForbidden, "Accès refusé à ce locataire.", GetRequestID(c)))
				return
			}
		}

		c.Next()
	}
}
