package rowcheck

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Remembers the outcome of rows already validated. Validators are pure
// functions of the row, so identical rows share a result.
type cachedValidator struct {
	validator Validator
	cache     *expirable.LRU[string, error]
}

func newCachedValidator(v Validator, size int, ttl time.Duration) *cachedValidator {
	return &cachedValidator{
		validator: v,
		cache:     expirable.NewLRU[string, error](size, nil, ttl),
	}
}

func (c *cachedValidator) Validate(row Row) error {
	key := rowKey(row)
	if err, ok := c.cache.Get(key); ok {
		return err
	}

	err := c.validator.Validate(row)
	c.cache.Add(key, err)
	return err
}

// fields are length-prefixed so [ab, c] and [a, bc] differ
func rowKey(row Row) string {
	h := md5.New()
	var size [8]byte
	for _, f := range row {
		binary.BigEndian.PutUint64(size[:], uint64(len(f)))
		h.Write(size[:])
		h.Write(f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
