package util

import (
	"quiz_extended_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 由外部身份服务签发的令牌声明，本服务只解析，不签发
type Claims struct {
	UserID uint           `json:"user_id"`
	Role   model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetViewer 把令牌声明折算成业务层使用的访问者身份
func GetViewer(c *gin.Context) (model.Viewer, bool) {
	claims := GetUserFromContext(c)
	if claims == nil {
		return model.Viewer{}, false
	}
	return model.Viewer{
		UserID:       claims.UserID,
		IsPrivileged: claims.Role.IsPrivileged(),
	}, true
}
