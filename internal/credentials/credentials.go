// Package credentials manages the durable token record for each connected
// user: storage, expiry detection, and concurrency-safe refresh.
package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the token record for one user. At most one live record
// exists per uid; a callback exchange or refresh replaces it wholesale.
type Credentials struct {
	UID          string    `json:"uid"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the access token is within skew of its expiry.
// A zero ExpiresAt means the provider reported no expiry.
func (c *Credentials) Expired(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-skew))
}

// FromToken builds a credential record from a provider token response.
// Fields the provider omitted (refresh token on rotation-less providers,
// scope, token type) are carried over from prev so a refresh never loses
// them.
func FromToken(uid string, tok *oauth2.Token, prev *Credentials, now time.Time) *Credentials {
	c := &Credentials{
		UID:          uid,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		TokenType:    tok.TokenType,
		CreatedAt:    now,
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		c.Scope = scope
	}

	if prev != nil {
		if c.RefreshToken == "" {
			c.RefreshToken = prev.RefreshToken
		}
		if c.Scope == "" {
			c.Scope = prev.Scope
		}
		if c.TokenType == "" {
			c.TokenType = prev.TokenType
		}
	}

	return c
}
