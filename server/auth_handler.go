package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"EchoFM/core/auth"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/repository"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Photo    string `json:"photo"`
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Photo:        req.Photo,
	}
	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] 邮箱已注册", logger.String("email", req.Email))
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		logger.Error("[Register] 创建用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// 首次注册时在键值存储里落一份画像节点
	if _, err := h.activity.GetOrCreateProfile(r.Context(), userID, model.Profile{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	}); err != nil {
		logger.Warn("[Register] 初始化画像失败", logger.String("userId", userID), logger.ErrorField(err))
	}

	token, err := h.tokens.GenerateToken(userID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("[Register] 注册成功", logger.String("userId", userID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    userID,
			"name":  req.Name,
			"email": req.Email,
			"photo": req.Photo,
		},
	})
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("[Login] 解析请求体失败", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		logger.Warn("[Login] 用户不存在", logger.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 密码验证失败", logger.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Name)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] 登录成功", logger.String("userId", user.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"photo": user.Photo,
		},
	})
}

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUserName contextKey = "userName"
)

// AuthMiddleware rejects requests without a valid bearer token.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.bearerClaims(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUserName, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware attaches the identity when a valid token is present
// and lets guests through otherwise.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := h.bearerClaims(r); err == nil {
			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxUserName, claims.Name)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	}
}

func (h *APIHandler) bearerClaims(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("Authorization header is required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("Invalid authorization header format")
	}
	claims, err := h.tokens.ValidateToken(parts[1])
	if err != nil {
		return nil, errors.New("Invalid token")
	}
	return claims, nil
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(ctxUserID).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
