package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// 認証済み呼び出し元の識別情報をハンドラへ伝えるために使用する。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Role はユーザーのロール。
	Role string `json:"role"`
}

// GenerateJWT はユーザー情報からJWTトークンを生成する。
// 署名アルゴリズムはHS256固定。ttlでトークンの有効期間を指定する。
func GenerateJWT(secret, userID, email, role string, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sportgw-gateway",
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// verifyToken はBearerトークンを検証し、クレームを返す。
// 署名不正・アルゴリズム不一致・有効期限クレームの欠落・期限切れは
// すべてエラーとなる（fail closed）。
func verifyToken(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errors.New("トークンの有効期限が切れています")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return nil, errors.New("トークンに有効期限クレームがありません")
	case err != nil, !token.Valid:
		return nil, errors.New("トークンが無効です")
	}
	return claims, nil
}

// JWTAuth はJWTトークンを必須とするGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user_id"・"email"・"role" を設定する。
// 資格情報の欠落・不正はいずれも401で拒否し、ハンドラは実行されない。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Bearerトークンが必要です",
			})
			return
		}
		authenticate(c, secret, tokenString)
	}
}

// OptionalJWTAuth はJWTトークンを任意とするGinミドルウェアを返す。
// Authorizationヘッダーが無い場合は未認証のまま通過させる。
// ヘッダーが存在する場合はJWTAuthと同じ規則で検証し、不正なら401で拒否する。
func OptionalJWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Bearer トークン形式が不正です",
			})
			return
		}
		authenticate(c, secret, tokenString)
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	return strings.CutPrefix(authHeader, "Bearer ")
}

// authenticate はトークンを検証し、結果をGinコンテキストへ反映する。
func authenticate(c *gin.Context, secret, tokenString string) {
	claims, err := verifyToken(secret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"detail": err.Error(),
		})
		return
	}

	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
	c.Next()
}

// GetUserID はGinコンテキストから認証済みユーザーIDを取得する。
// 認証ミドルウェアが事前に適用されていない場合は空文字列を返す。
func GetUserID(c *gin.Context) string {
	return contextString(c, "user_id")
}

// GetEmail はGinコンテキストから認証済みユーザーのメールアドレスを取得する。
func GetEmail(c *gin.Context) string {
	return contextString(c, "email")
}

// GetRole はGinコンテキストから認証済みユーザーのロールを取得する。
func GetRole(c *gin.Context) string {
	return contextString(c, "role")
}

// contextString はGinコンテキストから文字列値を取得する。
func contextString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
