package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GenerateProvisioningQR renders an otpauth:// provisioning URI as a PNG image.
	GenerateProvisioningQR(uri string) ([]byte, error)
}
