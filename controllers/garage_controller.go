package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fuelflow-api/models"
	"fuelflow-api/utils"
)

type GarageController struct {
	db *gorm.DB
}

func NewGarageController(db *gorm.DB) *GarageController {
	return &GarageController{db: db}
}

// ListGarages returns the refueling directory for the driver's organization.
// Garage-credit organizations only see garages holding their credit account;
// an empty result there is an explicit condition, not an empty list.
func (gc *GarageController) ListGarages(c *gin.Context) {
	orgID := c.GetString("org_id")

	var org models.Organization
	if err := gc.db.First(&org, "id = ?", orgID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Organization not found")
		return
	}

	if org.PaymentRail == models.PaymentRailGarageCredit {
		gc.listCreditGarages(c, orgID)
		return
	}

	var garages []models.Garage
	if err := gc.db.Where("active = ?", true).Order("name").Find(&garages).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch garages")
		return
	}

	items := make([]models.GarageListItem, 0, len(garages))
	for _, g := range garages {
		items = append(items, garageItem(g, ""))
	}
	c.JSON(http.StatusOK, gin.H{"garages": items})
}

func (gc *GarageController) listCreditGarages(c *gin.Context, orgID string) {
	var accounts []models.GarageCreditAccount
	err := gc.db.Preload("Garage").
		Where("organization_id = ? AND active = ?", orgID, true).
		Find(&accounts).Error
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch garages")
		return
	}

	items := make([]models.GarageListItem, 0, len(accounts))
	for _, account := range accounts {
		if !account.Garage.Active {
			continue
		}
		items = append(items, garageItem(account.Garage, account.AccountNumber))
	}

	if len(items) == 0 {
		utils.SendErrorCode(c, http.StatusConflict, "NO_AUTHORIZED_GARAGES",
			"No authorized garages",
			"No garages hold a credit account for your organization. Contact your administrator.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"garages": items})
}

func garageItem(g models.Garage, accountNumber string) models.GarageListItem {
	return models.GarageListItem{
		ID:             g.ID,
		Name:           g.Name,
		Address:        g.Address,
		Latitude:       g.Latitude,
		Longitude:      g.Longitude,
		CommissionRate: g.CommissionRate,
		FuelPrices:     g.FuelPrices,
		AccountNumber:  accountNumber,
	}
}
