package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/services"
)

const (
	defaultDecisionLimit = 50
	maxDecisionLimit     = 500
)

// SecurityHandler serves login attempts, blocking rules, alerts and decisions.
type SecurityHandler struct {
	cerb *cerberus.Cerberus
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(cerb *cerberus.Cerberus) *SecurityHandler {
	return &SecurityHandler{cerb: cerb}
}

type loginAttemptRequest struct {
	IPAddress string  `json:"ip_address"`
	Username  *string `json:"username"`
	Success   *bool   `json:"success"`
}

// RecordAttempt handles POST /api/v1/security/login/attempt. It is called by
// the login flow after every authentication attempt.
func (h *SecurityHandler) RecordAttempt(c *gin.Context) {
	var req loginAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.IPAddress == "" {
		badRequest(c, "IP required")
		return
	}
	if req.Success == nil {
		badRequest(c, "success must be a boolean")
		return
	}

	if _, err := h.cerb.Attempts().Record(req.IPAddress, req.Username, *req.Success); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attempt recorded"})
}

// ListAttempts handles GET /api/v1/security/login/attempts
func (h *SecurityHandler) ListAttempts(c *gin.Context) {
	attempts, err := h.cerb.Attempts().List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

type blockingRuleRequest struct {
	MaxFailedAttempts int    `json:"max_failed_attempts"`
	BlockDuration     string `json:"block_duration"`
	DetectionPattern  string `json:"detection_pattern"`
}

// SetRule handles POST /api/v1/security/rules
func (h *SecurityHandler) SetRule(c *gin.Context) {
	var req blockingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing parameters")
		return
	}

	rule, err := h.cerb.Rules().Set(req.MaxFailedAttempts, req.BlockDuration, req.DetectionPattern)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blocking rule saved successfully", "rule": rule})
}

// ListRules handles GET /api/v1/security/rules
func (h *SecurityHandler) ListRules(c *gin.Context) {
	rules, err := h.cerb.Rules().List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// ActiveRule handles GET /api/v1/security/rules/active
func (h *SecurityHandler) ActiveRule(c *gin.Context) {
	rule, err := h.cerb.Rules().Active()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// Alerts handles GET /api/v1/security/alerts
func (h *SecurityHandler) Alerts(c *gin.Context) {
	alerts, err := h.cerb.Alerts().Alerts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Decisions handles GET /api/v1/security/decisions?limit=
func (h *SecurityHandler) Decisions(c *gin.Context) {
	limit := defaultDecisionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxDecisionLimit)
	}

	decisions, err := h.cerb.Decisions().List(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}

// Status handles GET /api/v1/security/status
func (h *SecurityHandler) Status(c *gin.Context) {
	resp := gin.H{"cerberus": h.cerb.Status()}
	rule, err := h.cerb.Rules().Active()
	switch {
	case err == nil:
		resp["active_rule"] = rule
		resp["block_duration_seconds"] = int64(services.ParseBlockDuration(rule.BlockDuration).Seconds())
	case isNotFound(err):
		resp["active_rule"] = nil
	default:
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
