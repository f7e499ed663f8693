// handlers/auth.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"p9e.in/tms/config"
	"p9e.in/tms/middleware"
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/authn"
	"p9e.in/tms/pkg/logger"
)

type registerReq struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	BranchID    string `json:"branch_id"`
}

func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 6 {
		http.Error(w, "username and a password of 6+ chars required", http.StatusBadRequest)
		return
	}
	hash, err := authn.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "error hashing password", http.StatusInternalServerError)
		return
	}
	if req.Role == "" {
		req.Role = "staff"
	}
	u := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		BranchID:     req.BranchID,
	}
	if err := config.DB.Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE") {
			http.Error(w, "username already taken", http.StatusConflict)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}
type userPayload struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	BranchID    string `json:"branch_id"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	var u models.User
	if err := config.DB.Where(map[string]interface{}{"Username": req.Username}).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if u.ActiveStatus != "" && u.ActiveStatus != "Active" {
		http.Error(w, "account disabled", http.StatusForbidden)
		return
	}
	ok, needsRehash := authn.VerifyPassword(req.Password, u.PasswordHash)
	if !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	now := models.JSONTime(time.Now())
	updates := map[string]interface{}{"Last_Login": time.Now()}
	if needsRehash {
		if hash, err := authn.HashPassword(req.Password); err == nil {
			updates["Password_Hash"] = hash
		}
	}
	if err := config.DB.Model(&models.User{}).
		Where(map[string]interface{}{"Username": u.Username}).
		Updates(updates).Error; err != nil {
		logger.Warnf("login: update user %s: %v", u.Username, err)
	}
	u.LastLogin = &now

	token, err := middleware.GenerateToken(u.Username, u.Role, u.DisplayName, u.BranchID)
	if err != nil {
		http.Error(w, "couldn't create token", http.StatusInternalServerError)
		return
	}
	out := loginResp{
		Token: token,
		User: userPayload{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			BranchID:    u.BranchID,
		},
	}
	json.NewEncoder(w).Encode(out)
}

func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var u models.User
	if err := config.DB.First(&u, map[string]interface{}{"Username": claims.UserID}).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(userPayload{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		BranchID:    u.BranchID,
	})
}
