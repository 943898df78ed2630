package devenv

// PortalTestConfig holds real credentials for the tests that talk to the
// live portal, it is read from dev/.state/portal_config.json5.
type PortalTestConfig struct {
	BaseUrl        string `json:"base_url"`
	DocumentNumber string `json:"document_number"`
	VehicleNumber  string `json:"vehicle_number"`
	AntiCaptchaKey string `json:"anti_captcha_key"`
	AntiCaptchaId  int    `json:"anti_captcha_soft_id"`
}
