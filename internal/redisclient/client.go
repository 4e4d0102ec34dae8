package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"karupatti-shop/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis access for the server-side checkout session state:
// the cart hash, the applied-coupon slot and the pending-order pointer,
// all keyed by session token.
type Client struct {
	rdb     *redis.Client
	cartTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, cartTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, cartTTL: cartTTL}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(token string) string {
	return fmt.Sprintf("cart:%s", token)
}

func couponKey(token string) string {
	return fmt.Sprintf("coupon:%s", token)
}

func pendingOrderKey(token string) string {
	return fmt.Sprintf("pending_order:%s", token)
}

// SetCartLine writes one cart line into the session hash and refreshes the
// session TTL
func (c *Client) SetCartLine(ctx context.Context, token string, line models.CartLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal cart line: %w", err)
	}

	key := cartKey(token)
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(line.ProductID, 10), data)
	pipe.Expire(ctx, key, c.cartTTL)

	_, err = pipe.Exec(ctx)
	return err
}

// GetCartLine reads one cart line, nil when absent
func (c *Client) GetCartLine(ctx context.Context, token string, productID int64) (*models.CartLine, error) {
	data, err := c.rdb.HGet(ctx, cartKey(token), strconv.FormatInt(productID, 10)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var line models.CartLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart line: %w", err)
	}
	return &line, nil
}

// GetCartLines reads the whole cart, ordered by product id for stable output
func (c *Client) GetCartLines(ctx context.Context, token string) ([]models.CartLine, error) {
	entries, err := c.rdb.HGetAll(ctx, cartKey(token)).Result()
	if err != nil {
		return nil, err
	}

	lines := make([]models.CartLine, 0, len(entries))
	for _, raw := range entries {
		var line models.CartLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart line: %w", err)
		}
		lines = append(lines, line)
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

// RemoveCartLine deletes one line from the session hash
func (c *Client) RemoveCartLine(ctx context.Context, token string, productID int64) error {
	return c.rdb.HDel(ctx, cartKey(token), strconv.FormatInt(productID, 10)).Err()
}

// ClearCart drops the cart hash and the coupon slot
func (c *Client) ClearCart(ctx context.Context, token string) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, cartKey(token))
	pipe.Del(ctx, couponKey(token))
	_, err := pipe.Exec(ctx)
	return err
}

// SetAppliedCoupon stores the applied coupon on the session
func (c *Client) SetAppliedCoupon(ctx context.Context, token string, coupon models.AppliedCoupon) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to marshal coupon: %w", err)
	}
	return c.rdb.Set(ctx, couponKey(token), data, c.cartTTL).Err()
}

// GetAppliedCoupon reads the applied coupon, nil when none
func (c *Client) GetAppliedCoupon(ctx context.Context, token string) (*models.AppliedCoupon, error) {
	data, err := c.rdb.Get(ctx, couponKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var coupon models.AppliedCoupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coupon: %w", err)
	}
	return &coupon, nil
}

// ClearAppliedCoupon removes the coupon slot
func (c *Client) ClearAppliedCoupon(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, couponKey(token)).Err()
}

// SetPendingOrder records the order awaiting gateway confirmation
func (c *Client) SetPendingOrder(ctx context.Context, token, orderNumber string) error {
	return c.rdb.Set(ctx, pendingOrderKey(token), orderNumber, c.cartTTL).Err()
}

// GetPendingOrder reads the pending order number, empty when none
func (c *Client) GetPendingOrder(ctx context.Context, token string) (string, error) {
	val, err := c.rdb.Get(ctx, pendingOrderKey(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// ClearPendingOrder removes the pending order pointer
func (c *Client) ClearPendingOrder(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, pendingOrderKey(token)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
