package composables

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// Flash is a one-shot status message carried across a redirect.
type Flash struct {
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message"`
}

func SetFlash(w http.ResponseWriter, name string, value []byte) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.URLEncoding.EncodeToString(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

func SetFlashJSON(w http.ResponseWriter, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	SetFlash(w, name, b)
	return nil
}

// UseFlash reads and clears the flash cookie. A missing cookie yields nil.
func UseFlash(w http.ResponseWriter, r *http.Request, name string) ([]byte, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if err == http.ErrNoCookie {
			return nil, nil
		}
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{Name: name, Path: "/", MaxAge: -1, Expires: time.Unix(1, 0)})
	return base64.URLEncoding.DecodeString(c.Value)
}

// UseFlashMessage decodes a Flash set with SetFlashJSON. It returns nil
// when nothing was flashed or the cookie is unreadable.
func UseFlashMessage(w http.ResponseWriter, r *http.Request, name string) *Flash {
	raw, err := UseFlash(w, r, name)
	if err != nil || len(raw) == 0 {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
