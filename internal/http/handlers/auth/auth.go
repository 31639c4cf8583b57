package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/types/admin"
	"github.com/savcinema/voicereview-service/internal/utils/jwt"
	"github.com/savcinema/voicereview-service/internal/utils/password"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

// Login authenticates an admin and returns a JWT
// @Summary Authenticate an admin
// @Description Authenticate an admin user and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body admin.LoginRequest true "Admin credentials"
// @Success 200 {object} map[string]string "Token issued"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /auth/login [post]
func Login(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var loginReq admin.LoginRequest

		err := json.NewDecoder(r.Body).Decode(&loginReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(loginReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		adminID, hashedPassword, err := store.GetAdminByEmail(loginReq.Email)
		if err != nil {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		if !password.CheckPasswordHash(loginReq.Password, hashedPassword) {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		token, err := jwt.CreateToken(adminID, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"admin_id": adminID,
			"token":    token,
		})
	}
}
