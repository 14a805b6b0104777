// Package auth persists browser session cookies between runs.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twium/twium/internal/browser"
)

// ErrNoCookies is returned when a cookie file holds no cookies.
var ErrNoCookies = errors.New("cookie file contains no cookies")

// CookieFile is the persisted form of a browser cookie set.
type CookieFile struct {
	Cookies []StoredCookie `json:"cookies"`
}

// StoredCookie is one persisted cookie. Expiry is kept as a float because
// files written by other tools carry fractional seconds.
type StoredCookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain,omitempty"`
	Path     string   `json:"path,omitempty"`
	Expiry   *float64 `json:"expiry,omitempty"`
	Secure   bool     `json:"secure,omitempty"`
	HTTPOnly bool     `json:"httpOnly,omitempty"`
	SameSite string   `json:"sameSite,omitempty"`
}

// FromBrowser converts browser cookies to their persisted form as reported.
func FromBrowser(cookies []browser.Cookie) CookieFile {
	cf := CookieFile{Cookies: make([]StoredCookie, 0, len(cookies))}
	for _, c := range cookies {
		sc := StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		}
		if c.Expiry > 0 {
			exp := float64(c.Expiry)
			sc.Expiry = &exp
		}
		cf.Cookies = append(cf.Cookies, sc)
	}
	return cf
}

// Normalize returns the cookie ready for injection, with expiry truncated
// to whole seconds.
func (sc StoredCookie) Normalize() browser.Cookie {
	c := browser.Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Domain:   sc.Domain,
		Path:     sc.Path,
		Secure:   sc.Secure,
		HTTPOnly: sc.HTTPOnly,
		SameSite: sc.SameSite,
	}
	if sc.Expiry != nil && *sc.Expiry > 0 {
		c.Expiry = int64(*sc.Expiry)
	}
	return c
}

// SaveCookieFile writes cookies to path with owner-only permissions.
// TODO: Encrypt cookies at rest
func SaveCookieFile(path string, cookies []browser.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(FromBrowser(cookies), "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadCookieFile reads a cookie file and returns its cookies normalized
// for injection.
func LoadCookieFile(path string) ([]browser.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf CookieFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", path, err)
	}
	if len(cf.Cookies) == 0 {
		return nil, ErrNoCookies
	}

	cookies := make([]browser.Cookie, 0, len(cf.Cookies))
	for _, sc := range cf.Cookies {
		cookies = append(cookies, sc.Normalize())
	}
	return cookies, nil
}

// Exists reports whether a cookie file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Clear removes the cookie file. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
