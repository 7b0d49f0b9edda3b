package cache

import "context"

// StatusCache adapts Cache to store.Status under that interface's exact
// method names (Cache itself reserves Update/Remove for store.Leaderboards).
type StatusCache struct{ *Cache }

func (s StatusCache) Update(ctx context.Context, userID int32, action uint8, text string) error {
	return s.Cache.StatusUpdate(ctx, userID, action, text)
}

func (s StatusCache) Delete(ctx context.Context, userID int32) error {
	return s.Cache.StatusDelete(ctx, userID)
}

// UsercountCache adapts Cache to store.Usercount.
type UsercountCache struct{ *Cache }

func (u UsercountCache) Increment(ctx context.Context) (int64, error) { return u.Cache.Increment(ctx) }
func (u UsercountCache) Decrement(ctx context.Context) (int64, error) { return u.Cache.Decrement(ctx) }
