package freecap

import "strings"

// validateTask checks the required-field contract for the given captcha
// type. Blank (whitespace-only) values count as missing. Runs before any
// network call and has no side effects.
func validateTask(task *CaptchaTask, captchaType CaptchaType) error {
	switch captchaType {
	case HCaptcha:
		if blank(task.SiteKey) {
			return &ValidationError{Message: "sitekey is required for hCaptcha"}
		}
		if blank(task.SiteURL) {
			return &ValidationError{Message: "siteurl is required for hCaptcha"}
		}
		if blank(task.GroqAPIKey) {
			return &ValidationError{Message: "groq_api_key is required for hCaptcha"}
		}
		if blank(task.RqData) {
			return &ValidationError{Message: "rqdata cannot be blank for hCaptcha"}
		}
	case CaptchaFox:
		if blank(task.SiteKey) {
			return &ValidationError{Message: "sitekey is required for CaptchaFox"}
		}
		if blank(task.SiteURL) {
			return &ValidationError{Message: "siteurl is required for CaptchaFox"}
		}
	case DiscordID:
		if blank(task.SiteKey) {
			return &ValidationError{Message: "sitekey is required for Discord ID"}
		}
		if blank(task.SiteURL) {
			return &ValidationError{Message: "siteurl is required for Discord ID"}
		}
	case Geetest:
		if blank(task.Challenge) {
			return &ValidationError{Message: "challenge is required for Geetest"}
		}
	case FunCaptcha:
		if blank(string(task.Preset)) {
			return &ValidationError{Message: "preset is required for FunCaptcha"}
		}
		if task.ChromeVersion != "136" && task.ChromeVersion != "137" {
			return &ValidationError{Message: "chrome_version must be 136 or 137 for FunCaptcha"}
		}
	case AuroNetwork:
		// No required fields.
	default:
		return &ValidationError{Message: "unsupported captcha type: " + string(captchaType)}
	}
	return nil
}

// buildPayload turns a task into the CreateTask wire payload. Field names
// are type-specific service contract, not negotiable.
func buildPayload(task *CaptchaTask, captchaType CaptchaType) (map[string]any, error) {
	if err := validateTask(task, captchaType); err != nil {
		return nil, err
	}

	data := make(map[string]any)

	switch captchaType {
	case HCaptcha:
		data["websiteURL"] = task.SiteURL
		data["websiteKey"] = task.SiteKey
		data["rqData"] = task.RqData
		data["groqApiKey"] = task.GroqAPIKey
	case CaptchaFox, DiscordID:
		data["websiteURL"] = task.SiteURL
		data["websiteKey"] = task.SiteKey
	case Geetest:
		riskType := task.RiskType
		if riskType == "" {
			riskType = RiskSlide
		}
		data["Challenge"] = task.Challenge
		data["RiskType"] = string(riskType)
	case FunCaptcha:
		blob := task.Blob
		if blob == "" {
			blob = "undefined"
		}
		data["preset"] = string(task.Preset)
		data["chrome_version"] = task.ChromeVersion
		data["blob"] = blob
	case AuroNetwork:
	}

	if !blank(task.Proxy) {
		data["proxy"] = task.Proxy
	}

	return map[string]any{
		"captchaType": string(captchaType),
		"payload":     data,
	}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
