package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionLockKey returns the key guarding mutations of one interview session
func (r *CacheKeyStruct) SessionLockKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:lock", sessionID)
}

// AuthSessionKey returns the key marking a login token (by JWT ID) as active
func (r *CacheKeyStruct) AuthSessionKey(jti string) string {
	return fmt.Sprintf("auth:session:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
