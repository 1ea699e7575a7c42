package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shelfwise-backend/shared/config"
)

type CacheManager struct {
	client *redis.Client
	ctx    context.Context
}

var (
	globalCacheManager *CacheManager

	MemberRoleTTL     = 15 * time.Minute
	ShortIDReserveTTL = 5 * time.Minute
)

// InitCacheManager initializes the global cache manager
func InitCacheManager() error {
	cfg := config.GetConfig()

	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	globalCacheManager = &CacheManager{
		client: client,
		ctx:    ctx,
	}

	log.Printf("✅ Redis Cache Manager initialized successfully - %s:%s DB:%d",
		cfg.RedisHost, cfg.RedisPort, redisDB)

	return nil
}

// GetCacheManager returns the global cache manager instance, or nil when
// Redis is unavailable. Callers degrade to database lookups on nil.
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		if err := InitCacheManager(); err != nil {
			log.Printf("⚠️ Cache manager unavailable: %v", err)
			return nil
		}
	}
	return globalCacheManager
}

// MemberRoleKey generates the cache key for a workspace membership role
func MemberRoleKey(workspaceID, userID string) string {
	return fmt.Sprintf("ws:%s:member:%s:role", workspaceID, userID)
}

// ShortIDKey generates the reservation key for a QR short id
func ShortIDKey(shortID string) string {
	return fmt.Sprintf("qr:shortid:%s", shortID)
}

// GetMemberRole returns a cached membership role, "" on miss
func (cm *CacheManager) GetMemberRole(workspaceID, userID string) string {
	if cm == nil || cm.client == nil {
		return ""
	}

	role, err := cm.client.Get(cm.ctx, MemberRoleKey(workspaceID, userID)).Result()
	if err != nil {
		return ""
	}
	return role
}

// SetMemberRole caches a membership role lookup
func (cm *CacheManager) SetMemberRole(workspaceID, userID, role string) {
	if cm == nil || cm.client == nil {
		return
	}

	if err := cm.client.Set(cm.ctx, MemberRoleKey(workspaceID, userID), role, MemberRoleTTL).Err(); err != nil {
		log.Printf("⚠️ Failed to cache member role: %v", err)
	}
}

// InvalidateMemberRole drops a cached membership role after changes
func (cm *CacheManager) InvalidateMemberRole(workspaceID, userID string) {
	if cm == nil || cm.client == nil {
		return
	}
	cm.client.Del(cm.ctx, MemberRoleKey(workspaceID, userID))
}

// InvalidateWorkspaceMembers drops every cached role for a workspace
func (cm *CacheManager) InvalidateWorkspaceMembers(workspaceID string) {
	if cm == nil || cm.client == nil {
		return
	}

	pattern := fmt.Sprintf("ws:%s:member:*", workspaceID)
	keys, err := cm.client.Keys(cm.ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	cm.client.Del(cm.ctx, keys...)
}

// ReserveShortID claims a freshly generated short id so concurrent
// batch requests cannot hand out the same code before the insert lands.
// The unique index on the table remains the hard guarantee.
func (cm *CacheManager) ReserveShortID(shortID string) bool {
	if cm == nil || cm.client == nil {
		// Without Redis the unique index alone handles collisions
		return true
	}

	ok, err := cm.client.SetNX(cm.ctx, ShortIDKey(shortID), "1", ShortIDReserveTTL).Result()
	if err != nil {
		return true
	}
	return ok
}

// ReleaseShortID frees a reservation after the insert failed
func (cm *CacheManager) ReleaseShortID(shortID string) {
	if cm == nil || cm.client == nil {
		return
	}
	cm.client.Del(cm.ctx, ShortIDKey(shortID))
}
