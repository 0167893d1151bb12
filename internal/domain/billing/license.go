package billing

type LicenseStatus string

const (
	LicenseActive  LicenseStatus = "active"
	LicenseRevoked LicenseStatus = "revoked"
)

const (
	ProviderCielo     = "cielo"
	ProviderCieloMock = "cielo_mock"
)
