package handler

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Retr0981/agenttrust/internal/certificate"
)

// WellKnownHandler serves the station's unauthenticated discovery endpoints
// (spec.md §4.4, §6).
type WellKnownHandler struct {
	publicKeyPEM string
	expirySecs   int
}

// NewWellKnownHandler builds a WellKnownHandler. publicKey is PEM-encoded
// once at startup since it never changes within a process lifetime
// (spec.md §1 Non-goals: key rotation is future work).
func NewWellKnownHandler(publicKey *rsa.PublicKey, certTTL time.Duration) (*WellKnownHandler, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return &WellKnownHandler{
		publicKeyPEM: string(pem.EncodeToMemory(block)),
		expirySecs:   int(certTTL.Seconds()),
	}, nil
}

// Register mounts the well-known routes.
func (h *WellKnownHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/.well-known/station-keys", h.StationKeys)
	rg.GET("/.well-known/station-info", h.StationInfo)
}

// StationKeys handles GET /.well-known/station-keys. Must be safe to expose
// unauthenticated (spec.md §4.4).
func (h *WellKnownHandler) StationKeys(c *gin.Context) {
	c.JSON(http.StatusOK, certificate.DiscoveryDoc{
		PublicKeyPEM: h.publicKeyPEM,
		Algorithm:    "RS256",
		Use:          "sig",
		Issuer:       certificate.Issuer,
	})
}

// stationInfo is the payload for GET /.well-known/station-info.
type stationInfo struct {
	Issuer                   string `json:"issuer"`
	CertificateExpirySeconds int    `json:"certificateExpirySeconds"`
}

// StationInfo handles GET /.well-known/station-info.
func (h *WellKnownHandler) StationInfo(c *gin.Context) {
	c.JSON(http.StatusOK, stationInfo{
		Issuer:                   certificate.Issuer,
		CertificateExpirySeconds: h.expirySecs,
	})
}
