package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/services"
)

// IPHandler administers the IP allow/deny registry. Writes go through the
// engine so a manual change also cancels a pending auto-unblock.
type IPHandler struct {
	cerb     *cerberus.Cerberus
	registry *services.IPRegistryService
}

func NewIPHandler(cerb *cerberus.Cerberus) *IPHandler {
	return &IPHandler{cerb: cerb, registry: cerb.Registry()}
}

// List handles GET /api/v1/ips?page=&status=
func (h *IPHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	var status *bool
	if raw, ok := c.GetQuery("status"); ok && raw != "" {
		s := raw == "true"
		status = &s
	}

	res, err := h.registry.List(page, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Search handles GET /api/v1/ips/search?ip=
func (h *IPHandler) Search(c *gin.Context) {
	ips, err := h.registry.Search(c.Query("ip"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ips": ips})
}

// Get handles GET /api/v1/ips/:ip_address
func (h *IPHandler) Get(c *gin.Context) {
	entry, err := h.registry.Get(c.Param("ip_address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type createIPRequest struct {
	IPAddress string  `json:"ip_address"`
	Status    *bool   `json:"status"`
	Reason    *string `json:"reason"`
}

// Create handles POST /api/v1/ips. A missing status means allowed.
func (h *IPHandler) Create(c *gin.Context) {
	var req createIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	status := true
	if req.Status != nil {
		status = *req.Status
	}

	entry, err := h.cerb.SaveIP(req.IPAddress, status, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "IP added successfully!", "ip": entry})
}

type updateIPRequest struct {
	Status *bool   `json:"status"`
	Reason *string `json:"reason"`
}

// UpdateStatus handles PATCH /api/v1/ips/:ip_address
func (h *IPHandler) UpdateStatus(c *gin.Context) {
	var req updateIPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		badRequest(c, "Status must be a boolean!")
		return
	}
	if !*req.Status && (req.Reason == nil || *req.Reason == "") {
		badRequest(c, "Reason required when blocking an IP!")
		return
	}

	entry, err := h.cerb.UpdateIPStatus(c.Param("ip_address"), *req.Status, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "IP status updated successfully!", "ip": entry})
}

func isNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
