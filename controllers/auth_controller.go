package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fuelflow-api/models"
	"fuelflow-api/utils"
)

type AuthController struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthController(db *gorm.DB, jwtSecret string) *AuthController {
	return &AuthController{
		db:        db,
		jwtSecret: jwtSecret,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token  string        `json:"token"`
	Driver models.Driver `json:"driver"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	// Find driver
	var driver models.Driver
	if err := ac.db.Preload("Organization").Where("email = ?", req.Email).First(&driver).Error; err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(driver.Password), []byte(req.Password)); err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !driver.Active {
		utils.SendErrorCode(c, http.StatusForbidden, "", "Account disabled",
			"Your account has been deactivated. Contact your fleet administrator.")
		return
	}

	// Generate JWT token
	token, err := ac.generateJWT(driver.ID, driver.OrganizationID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Remove password from response
	driver.Password = ""

	c.JSON(http.StatusOK, AuthResponse{
		Token:  token,
		Driver: driver,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	// In a stateless JWT system, logout is handled client-side
	utils.SendSuccess(c, "Successfully logged out", nil)
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	driverID := c.GetString("user_id")

	var driver models.Driver
	if err := ac.db.Preload("Organization").First(&driver, "id = ?", driverID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Driver not found")
		return
	}

	driver.Password = ""
	c.JSON(http.StatusOK, driver)
}

func (ac *AuthController) generateJWT(driverID, orgID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": driverID,
		"org_id":  orgID,
		"exp":     time.Now().Add(12 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ac.jwtSecret))
}
