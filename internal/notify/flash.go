package notify

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	FlashCookie = "flash"
	maxFlash    = 5
)

// SaveFlash stores notices in a short-lived cookie so they survive a redirect.
func SaveFlash(w http.ResponseWriter, notices []Notice) {
	if len(notices) == 0 {
		return
	}
	if len(notices) > maxFlash {
		notices = notices[len(notices)-maxFlash:]
	}
	b, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TakeFlash reads and clears the flash cookie. Malformed cookies are dropped.
func TakeFlash(w http.ResponseWriter, r *http.Request) []Notice {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []Notice
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	valid := out[:0]
	for _, n := range out {
		if n.Variant == Success || n.Variant == Error {
			valid = append(valid, n)
		}
	}
	if len(valid) > maxFlash {
		valid = valid[:maxFlash]
	}
	return valid
}
