package freecap

import "strings"

// CaptchaType identifies a captcha service supported by the FreeCap API.
type CaptchaType string

const (
	HCaptcha    CaptchaType = "hcaptcha"
	CaptchaFox  CaptchaType = "captchafox"
	Geetest     CaptchaType = "geetest"
	DiscordID   CaptchaType = "discordid"
	FunCaptcha  CaptchaType = "funcaptcha"
	AuroNetwork CaptchaType = "auronetwork"
)

// TaskStatus is the task state reported by the GetTask endpoint.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusSolved     TaskStatus = "solved"
	StatusError      TaskStatus = "error"
	StatusFailed     TaskStatus = "failed"
)

// parseTaskStatus maps a wire status string to a TaskStatus,
// case-insensitively. The set is closed: anything unrecognized is
// StatusError, a terminal state.
func parseTaskStatus(s string) TaskStatus {
	switch status := TaskStatus(strings.ToLower(s)); status {
	case StatusPending, StatusProcessing, StatusSolved, StatusError, StatusFailed:
		return status
	}
	return StatusError
}

// RiskType is the Geetest challenge variant.
type RiskType string

const (
	RiskSlide  RiskType = "slide"
	RiskGobang RiskType = "gobang"
	RiskIcon   RiskType = "icon"
	RiskAI     RiskType = "ai"
)

// FunCaptchaPreset is a named bundle of site-specific FunCaptcha parameters.
type FunCaptchaPreset string

const (
	PresetSnapchatLogin FunCaptchaPreset = "snapchat_login"
	PresetRobloxLogin   FunCaptchaPreset = "roblox_login"
	PresetRobloxFollow  FunCaptchaPreset = "roblox_follow"
	PresetRobloxGroup   FunCaptchaPreset = "roblox_group"
	PresetDropboxLogin  FunCaptchaPreset = "dropbox_login"
)

// CaptchaTask describes one captcha challenge. It is a superset of all
// per-type fields; which ones are required depends on the CaptchaType
// passed at submission.
type CaptchaTask struct {
	// Common
	SiteKey string
	SiteURL string
	Proxy   string

	// hCaptcha
	RqData     string
	GroqAPIKey string

	// Geetest
	Challenge string
	RiskType  RiskType

	// FunCaptcha
	Preset        FunCaptchaPreset
	ChromeVersion string
	Blob          string
}

// NewCaptchaTask returns a task with the FunCaptcha and Geetest defaults
// pre-filled: chrome version 137, blob "undefined", slide risk type.
func NewCaptchaTask() *CaptchaTask {
	return &CaptchaTask{
		ChromeVersion: "137",
		Blob:          "undefined",
		RiskType:      RiskSlide,
	}
}
